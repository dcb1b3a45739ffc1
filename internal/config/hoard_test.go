package config

import "testing"

func TestDecodeHoardsSinglePileShape(t *testing.T) {
	raw := map[string]interface{}{
		"bashrc": map[string]interface{}{
			"linux":   "~/.bashrc",
			"windows": "C:\\Users\\me\\.bashrc",
		},
	}
	hoards, err := decodeHoards(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spec, ok := hoards["bashrc"]
	if !ok {
		t.Fatal("expected bashrc hoard")
	}
	pile, ok := spec.Piles[""]
	if !ok {
		t.Fatal("expected anonymous pile for single-pile hoard")
	}
	if pile.Paths["linux"] != "~/.bashrc" {
		t.Errorf("paths = %+v", pile.Paths)
	}
}

func TestDecodeHoardsMultiPileShape(t *testing.T) {
	raw := map[string]interface{}{
		"game": map[string]interface{}{
			"config": map[string]interface{}{
				"ignore": []interface{}{"*.tmp"},
			},
			"saves": map[string]interface{}{
				"linux": "~/.local/share/game/saves",
			},
			"settings": map[string]interface{}{
				"linux": "~/.config/game/settings.ini",
			},
		},
	}
	hoards, err := decodeHoards(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spec := hoards["game"]
	if spec.Config == nil || len(spec.Config.Ignore) != 1 || spec.Config.Ignore[0] != "*.tmp" {
		t.Errorf("hoard config = %+v", spec.Config)
	}
	if _, ok := spec.Piles["saves"]; !ok {
		t.Error("expected saves pile")
	}
	if _, ok := spec.Piles["settings"]; !ok {
		t.Error("expected settings pile")
	}
	if _, ok := spec.Piles[""]; ok {
		t.Error("did not expect anonymous pile in multi-pile hoard")
	}
}

func TestDecodePileConfigParsesPermissionsAndChecksum(t *testing.T) {
	raw := map[string]interface{}{
		"file_permissions":   int64(0o600),
		"folder_permissions": int64(0o700),
		"checksum_type":      "md5",
	}
	cfg, err := decodePileConfig(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FilePermissions == nil || *cfg.FilePermissions != 0o600 {
		t.Errorf("file permissions = %v", cfg.FilePermissions)
	}
	if cfg.ChecksumType == nil {
		t.Fatal("expected checksum type set")
	}
}
