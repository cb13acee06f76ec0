package shortcuts

import (
	"hash/crc32"
	"strconv"
	"strings"
)

// Field is a shortcut attribute with the two spellings Steam has used for it.
type Field struct {
	Canonical string
	Legacy    string
}

// Shortcut attributes the synchronizer reads and writes.
var (
	FieldAppID         = Field{Canonical: "appid", Legacy: "AppId"}
	FieldAppName       = Field{Canonical: "AppName", Legacy: "appname"}
	FieldExe           = Field{Canonical: "Exe", Legacy: "exe"}
	FieldStartDir      = Field{Canonical: "StartDir", Legacy: "startdir"}
	FieldLaunchOptions = Field{Canonical: "LaunchOptions", Legacy: "launchoptions"}
	FieldIcon          = Field{Canonical: "icon", Legacy: "Icon"}
)

const shortcutsKey = "shortcuts"

// lookup finds the node for f under either spelling.
func lookup(entry *Node, f Field) *Node {
	if node := entry.Child(f.Canonical); node != nil {
		return node
	}

	return entry.Child(f.Legacy)
}

func readString(entry *Node, f Field) string {
	node := lookup(entry, f)
	if node == nil || node.Type != TypeString {
		return ""
	}

	return node.Str
}

// writeString sets f, keeping whichever spelling the entry already uses.
// It reports whether the stored value changed.
func writeString(entry *Node, f Field, value string) bool {
	node := lookup(entry, f)
	if node == nil {
		entry.Append(NewString(f.Canonical, value))
		return true
	}

	if node.Type == TypeString && node.Str == value {
		return false
	}

	node.Type = TypeString
	node.Str = value
	node.Raw = nil

	return true
}

// readAppID renders the app id as the unsigned decimal Steam shows.
func readAppID(entry *Node) string {
	node := lookup(entry, FieldAppID)
	if node == nil {
		return ""
	}

	if node.Type == TypeString {
		return node.Str
	}

	value, ok := node.Int32()
	if !ok {
		return ""
	}

	return strconv.FormatUint(uint64(uint32(value)), 10) //nolint:gosec // reinterpreting the bit pattern
}

// AppIDFor returns the int32 stored for id. A non-numeric id gets Steam's
// generated shortcut id for exe and name.
func AppIDFor(id, exe, name string) int32 {
	if parsed, err := strconv.ParseUint(id, 10, 32); err == nil {
		return int32(uint32(parsed)) //nolint:gosec // reinterpreting the bit pattern
	}

	return int32(crc32.ChecksumIEEE([]byte(exe+name)) | 0x80000000) //nolint:gosec,mnd // high bit marks a non-Steam id
}

// newEntry builds an entry with the field set Steam writes for a new
// shortcut.
func newEntry(key, id, name, exe, startDir, icon, launchOptions string) *Node {
	return NewMap(key,
		NewInt32(FieldAppID.Canonical, AppIDFor(id, exe, name)),
		NewString(FieldAppName.Canonical, name),
		NewString(FieldExe.Canonical, exe),
		NewString(FieldStartDir.Canonical, startDir),
		NewString(FieldIcon.Canonical, icon),
		NewString("ShortcutPath", ""),
		NewString(FieldLaunchOptions.Canonical, launchOptions),
		NewInt32("IsHidden", 0),
		NewInt32("AllowDesktopConfig", 1),
		NewInt32("AllowOverlay", 1),
		NewInt32("OpenVR", 0),
		NewInt32("Devkit", 0),
		NewString("DevkitGameID", ""),
		NewInt32("DevkitOverrideAppID", 0),
		NewInt32("LastPlayTime", 0),
		NewString("FlatpakAppID", ""),
		NewMap("tags"),
	)
}

// shortcutList returns the top-level shortcuts map, creating it if absent.
func shortcutList(root *Node) *Node {
	for _, child := range root.Children {
		if child.Type == TypeMap && strings.EqualFold(child.Key, shortcutsKey) {
			return child
		}
	}

	list := NewMap(shortcutsKey)
	root.Append(list)

	return list
}

// nextIndex is one past the highest numeric entry key.
func nextIndex(list *Node) string {
	next := 0

	for _, entry := range list.Children {
		if n, err := strconv.Atoi(entry.Key); err == nil && n >= next {
			next = n + 1
		}
	}

	return strconv.Itoa(next)
}
