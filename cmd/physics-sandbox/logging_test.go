package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		existing int64 // bytes already in the log file, -1 for none
		wantFile bool
		wantLogs int // .log files in logDir afterwards
	}{
		{"off", false, -1, false, 0},
		{"fresh file", true, -1, true, 1},
		{"small file appended", true, 64, true, 1},
		{"oversized file rotated", true, maxLogSize + 1, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			prevOut, prevFlags := log.Writer(), log.Flags()
			t.Cleanup(func() {
				log.SetOutput(prevOut)
				log.SetFlags(prevFlags)
			})

			logPath := filepath.Join(logDir, logFileName)
			if tt.existing >= 0 {
				if err := os.MkdirAll(logDir, 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(logPath, make([]byte, tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			f := setupLogging(tt.debug)
			if (f != nil) != tt.wantFile {
				t.Fatalf("setupLogging(%v) file = %v, want file %v", tt.debug, f, tt.wantFile)
			}
			if f == nil {
				if log.Writer() != io.Discard {
					t.Errorf("output = %v, want io.Discard", log.Writer())
				}
				if _, err := os.Stat(logDir); !os.IsNotExist(err) {
					t.Errorf("%s created with logging off", logDir)
				}
				return
			}
			defer f.Close()

			if w := log.Writer(); w == os.Stdout || w == os.Stderr {
				t.Error("log output points at the terminal")
			}

			log.Print("scene built")
			data, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "scene built") {
				t.Errorf("%s missing the logged line", logPath)
			}
			if int64(len(data)) > maxLogSize {
				t.Errorf("active log is %d bytes after setup", len(data))
			}

			entries, err := os.ReadDir(logDir)
			if err != nil {
				t.Fatal(err)
			}
			logs := 0
			for _, e := range entries {
				if filepath.Ext(e.Name()) == ".log" {
					logs++
				}
			}
			if logs != tt.wantLogs {
				t.Errorf("%d log files in %s, want %d", logs, logDir, tt.wantLogs)
			}
		})
	}
}
