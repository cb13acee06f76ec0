package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/pkg/errors"
)

const sampleSettings = `
steam:
  user_id: "12345678"
  user_name: deck
  user_config_path: /home/deck/.steam/steam/userdata
remote:
  host: nexus.host
  user: deck
  private_key_path: /home/deck/.ssh/id_ed25519
local:
  prefixes_path: /home/deck/Prefixes
  libraries:
    - label: Internal
      path: /home/deck/Games
    - path: /run/media/deck/SSD/Games
launchers:
  emulation_path: /home/deck/Emulation
  port_proton_path: /home/deck/PortProton
backup:
  remote_location: Nexus/Backups
  local_locations:
    - path: /home/deck/.config/retroarch
      exclude: ["*.log"]
`

func writeSettings(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	return path
}

func TestLoad_AppliesDefaultsAndDerivesPaths(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	settings, err := config.Load(writeSettings(t, sampleSettings))
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(settings.Remote.Port).To(Equal(22))
	g.Expect(settings.Remote.InitialPrefixes).To(Equal("initial"))
	g.Expect(settings.Catalog.Driver).To(Equal(config.DriverSFTP))
	g.Expect(settings.FingerprintMode).To(Equal(config.ContentMode))
	g.Expect(settings.Local.Libraries[1].Label).To(Equal("Games"))
	g.Expect(settings.Backup.LocalLocations[0].Exclude).To(ConsistOf("*.log"))

	g.Expect(settings.ShortcutsPath()).To(Equal("/home/deck/.steam/steam/userdata/12345678/config/shortcuts.vdf"))
	g.Expect(settings.RemoteGamePath("Hades")).To(Equal("Nexus/Games/Hades"))
	g.Expect(settings.RemoteInitialPrefixPath("Hades")).To(Equal("Nexus/Prefixes/initial/Hades"))
	g.Expect(settings.RemotePrefixPath("deck", "Hades")).To(Equal("Nexus/Prefixes/deck/Hades"))
	g.Expect(settings.LocalPrefixPath("Hades")).To(Equal("/home/deck/Prefixes/Hades"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(errors.Is(err, errors.ErrConfig)).To(BeTrue())
}

func TestLoad_ValidationProblemsAreJoined(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := config.Load(writeSettings(t, "catalog:\n  driver: mysql\nfingerprint_mode: paranoid\n"))
	g.Expect(errors.Is(err, errors.ErrConfig)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("remote.host is required"))
	g.Expect(err.Error()).To(ContainSubstring("local.libraries needs at least one entry"))
	g.Expect(err.Error()).To(ContainSubstring(`catalog.driver "mysql"`))
	g.Expect(err.Error()).To(ContainSubstring("invalid fingerprint mode"))
}

func TestApplyArchiveURL(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	settings, err := config.Load(writeSettings(t, sampleSettings))
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(settings.ApplyArchiveURL("sftp://archive@backup.lan:2222//srv/nexus")).To(Succeed())
	g.Expect(settings.Remote.Host).To(Equal("backup.lan"))
	g.Expect(settings.Remote.User).To(Equal("archive"))
	g.Expect(settings.Endpoint().Address()).To(Equal("backup.lan:2222"))
	g.Expect(settings.RemoteGamePath("Hades")).To(Equal("/srv/nexus/Games/Hades"))

	g.Expect(errors.Is(settings.ApplyArchiveURL("ftp://x@y"), errors.ErrConfig)).To(BeTrue())
}
