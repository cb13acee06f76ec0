package catalog

import (
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
)

// Column names shared by both stores and used as Fields keys.
const (
	ColumnAppID             = "steam_app_id"
	ColumnTitle             = "steam_title"
	ColumnExeTarget         = "steam_exe_target"
	ColumnStartDir          = "steam_start_dir"
	ColumnLaunchArgs        = "steam_launch_args"
	ColumnIcon              = "icon"
	ColumnGameLocation      = "game_location"
	ColumnPrefixLocation    = "prefix_location"
	ColumnLauncher          = "launcher"
	ColumnLauncherTarget    = "launcher_target"
	ColumnGameHash          = "game_hash_md5"
	ColumnGameSizeInBytes   = "game_size_in_bytes"
	ColumnPrefixHash        = "prefix_hash_md5"
	ColumnPrefixSizeInBytes = "prefix_size_in_bytes"
	ColumnStatus            = "status"
)

// Record is one catalog row. An empty hash means none was recorded.
type Record struct {
	SteamAppID        string `json:"steam_app_id" gorm:"column:steam_app_id;primaryKey"`
	SteamTitle        string `json:"steam_title" gorm:"column:steam_title"`
	SteamExeTarget    string `json:"steam_exe_target" gorm:"column:steam_exe_target"`
	SteamStartDir     string `json:"steam_start_dir" gorm:"column:steam_start_dir"`
	SteamLaunchArgs   string `json:"steam_launch_args" gorm:"column:steam_launch_args"`
	Icon              []byte `json:"icon,omitempty" gorm:"column:icon"`
	GameLocation      string `json:"game_location" gorm:"column:game_location"`
	PrefixLocation    string `json:"prefix_location" gorm:"column:prefix_location"`
	Launcher          string `json:"launcher" gorm:"column:launcher"`
	LauncherTarget    string `json:"launcher_target" gorm:"column:launcher_target"`
	GameHashMD5       string `json:"game_hash_md5" gorm:"column:game_hash_md5"`
	GameSizeInBytes   int64  `json:"game_size_in_bytes" gorm:"column:game_size_in_bytes"`
	PrefixHashMD5     string `json:"prefix_hash_md5" gorm:"column:prefix_hash_md5"`
	PrefixSizeInBytes int64  `json:"prefix_size_in_bytes" gorm:"column:prefix_size_in_bytes"`
	Status            string `json:"status" gorm:"column:status"`
}

// TableName names the gorm table.
func (Record) TableName() string {
	return "games"
}

// Fields is a partial record update keyed by column name.
type Fields map[string]any

// Apply sets the columns in f on r. Unknown columns are ignored.
func (f Fields) Apply(r *Record) {
	for column, value := range f {
		switch column {
		case ColumnTitle:
			r.SteamTitle = asString(value)
		case ColumnExeTarget:
			r.SteamExeTarget = asString(value)
		case ColumnStartDir:
			r.SteamStartDir = asString(value)
		case ColumnLaunchArgs:
			r.SteamLaunchArgs = asString(value)
		case ColumnIcon:
			r.Icon, _ = value.([]byte)
		case ColumnGameLocation:
			r.GameLocation = asString(value)
		case ColumnPrefixLocation:
			r.PrefixLocation = asString(value)
		case ColumnLauncher:
			r.Launcher = asString(value)
		case ColumnLauncherTarget:
			r.LauncherTarget = asString(value)
		case ColumnGameHash:
			r.GameHashMD5 = asString(value)
		case ColumnGameSizeInBytes:
			r.GameSizeInBytes = asInt64(value)
		case ColumnPrefixHash:
			r.PrefixHashMD5 = asString(value)
		case ColumnPrefixSizeInBytes:
			r.PrefixSizeInBytes = asInt64(value)
		case ColumnStatus:
			r.Status = asString(value)
		}
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case Status:
		return string(v)
	case launcher.Kind:
		return string(v)
	default:
		return ""
	}
}

func asInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// ItemFromRecord builds a catalog-sourced item. The record's hashes become
// the remote fingerprints.
func ItemFromRecord(r Record) *GameItem {
	status := Status(r.Status)
	if status == "" {
		status = StatusDraft
	}

	kind := launcher.Kind(r.Launcher)
	if kind == "" {
		kind = launcher.NOOP
	}

	return &GameItem{
		ID:             r.SteamAppID,
		Title:          r.SteamTitle,
		ExeTarget:      r.SteamExeTarget,
		StartDir:       r.SteamStartDir,
		LaunchArgs:     r.SteamLaunchArgs,
		Source:         SourceCatalog,
		Launcher:       kind,
		LauncherTarget: r.LauncherTarget,
		Status:         status,
		GameLocation:   r.GameLocation,
		PrefixLocation: r.PrefixLocation,
		Icon:           r.Icon,
		RemoteGame:     fingerprint.Fingerprint{Hash: r.GameHashMD5, SizeInBytes: r.GameSizeInBytes},
		RemotePrefix:   fingerprint.Fingerprint{Hash: r.PrefixHashMD5, SizeInBytes: r.PrefixSizeInBytes},
	}
}

// Record returns the persisted view of g.
func (g *GameItem) Record() Record {
	return Record{
		SteamAppID:        g.ID,
		SteamTitle:        g.Title,
		SteamExeTarget:    g.ExeTarget,
		SteamStartDir:     g.StartDir,
		SteamLaunchArgs:   g.LaunchArgs,
		Icon:              g.Icon,
		GameLocation:      g.GameLocation,
		PrefixLocation:    g.PrefixLocation,
		Launcher:          string(g.Launcher),
		LauncherTarget:    g.LauncherTarget,
		GameHashMD5:       g.RemoteGame.Hash,
		GameSizeInBytes:   g.RemoteGame.SizeInBytes,
		PrefixHashMD5:     g.RemotePrefix.Hash,
		PrefixSizeInBytes: g.RemotePrefix.SizeInBytes,
		Status:            string(g.Status),
	}
}

// EditableFields are the non-hash columns a save may change.
func (g *GameItem) EditableFields() Fields {
	return Fields{
		ColumnTitle:          g.Title,
		ColumnExeTarget:      g.ExeTarget,
		ColumnStartDir:       g.StartDir,
		ColumnLaunchArgs:     g.LaunchArgs,
		ColumnGameLocation:   g.GameLocation,
		ColumnPrefixLocation: g.PrefixLocation,
		ColumnLauncher:       string(g.Launcher),
		ColumnLauncherTarget: g.LauncherTarget,
	}
}
