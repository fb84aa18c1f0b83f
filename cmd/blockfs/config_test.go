package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "blockfs.yaml")
	if err := os.WriteFile(
		configFile,
		[]byte("backend: s3\nbucket: from-file\ngzip: true\nvolume: photos\n"),
		0644,
	); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}

	t.Setenv("BLOCKFS_CONFIG_FILE", configFile)
	t.Setenv("BLOCKFS_BUCKET", "from-env")
	t.Setenv("BLOCKFS_LOG_LEVEL", "debug")

	c, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig(): unexpected err: %v", err)
	}

	wanted := Config{
		Backend:       BackendS3,
		Bucket:        "from-env",
		Gzip:          true,
		Volume:        "photos",
		CacheCapacity: 16,
		LogLevel:      "debug",
		LogFormat:     "text",
		Addr:          "127.0.0.1:8080",
	}
	if *c != wanted {
		wantedJSON, _ := json.Marshal(wanted)
		foundJSON, _ := json.Marshal(c)
		t.Fatalf("LoadConfig(): wanted `%s`; found `%s`", wantedJSON, foundJSON)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate(): unexpected err: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("BLOCKFS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	c, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig(): unexpected err: %v", err)
	}
	if c.Backend != BackendFile || c.Path != "blockfs.img" {
		t.Fatalf("LoadConfig(): unexpected defaults: %+v", c)
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "blockfs.yaml")
	if err := os.WriteFile(configFile, []byte("colour: blue\n"), 0644); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}
	t.Setenv("BLOCKFS_CONFIG_FILE", configFile)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig(): wanted err; found nil")
	}
}

func TestValidate(t *testing.T) {
	type testCase struct {
		name        string
		config      Config
		wantedError string
	}

	valid := Config{
		Backend:       BackendFile,
		Path:          "blockfs.img",
		Volume:        "default",
		CacheCapacity: 16,
		Addr:          "127.0.0.1:8080",
	}

	for _, tc := range []testCase{{
		name:   "valid",
		config: valid,
	}, {
		name: "file without path",
		config: func() Config {
			c := valid
			c.Path = ""
			return c
		}(),
		wantedError: "missing required configuration: path / BLOCKFS_PATH",
	}, {
		name: "s3 without bucket",
		config: func() Config {
			c := valid
			c.Backend = BackendS3
			return c
		}(),
		wantedError: "missing required configuration: bucket / BLOCKFS_BUCKET",
	}, {
		name: "postgres without volume",
		config: func() Config {
			c := valid
			c.Backend = BackendPostgres
			c.Volume = ""
			return c
		}(),
		wantedError: "missing required configuration: volume / BLOCKFS_VOLUME",
	}, {
		name: "unknown backend",
		config: func() Config {
			c := valid
			c.Backend = "floppy"
			return c
		}(),
		wantedError: "invalid backend `floppy`",
	}, {
		name: "negative image offset",
		config: func() Config {
			c := valid
			c.ImageOffset = -1
			return c
		}(),
		wantedError: "invalid image offset `-1`",
	}, {
		name: "zero cache",
		config: func() Config {
			c := valid
			c.CacheCapacity = 0
			return c
		}(),
		wantedError: "invalid cache capacity `0`",
	}} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantedError == "" {
				if err != nil {
					t.Fatalf("Validate(): unexpected err: %v", err)
				}
				return
			}
			if err == nil || !strings.HasPrefix(err.Error(), tc.wantedError) {
				t.Fatalf("Validate(): wanted `%s`; found `%v`", tc.wantedError, err)
			}
		})
	}
}
