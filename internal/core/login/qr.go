package login

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mediadash/internal/platform/engine"
)

// QRArtifact is a transient image file signaling that an interactive
// login is waiting for a scan.
type QRArtifact struct {
	File    string
	Path    string
	ModTime time.Time
}

func qrFileName(p engine.Platform, sessionID string) string {
	return fmt.Sprintf("qr_%s_%s.png", p, sessionID)
}

// FindQR looks up the artifact tagged with a handshake session id.
func FindQR(dir, sessionID string) (QRArtifact, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, "qr_*_"+sessionID+".png"))
	if err != nil || len(matches) == 0 {
		return QRArtifact{}, false
	}
	return newest(matches)
}

// LatestQR returns the most recently modified QR image in the scratch
// directory. This is the advisory recency-based fallback: it says a QR
// code exists, not which job it belongs to.
func LatestQR(dir string) (QRArtifact, bool) {
	var matches []string
	for _, pattern := range []string{"qr_*.png", "*.PNG"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err == nil {
			matches = append(matches, m...)
		}
	}
	if len(matches) == 0 {
		return QRArtifact{}, false
	}
	return newest(matches)
}

func newest(paths []string) (QRArtifact, bool) {
	var best QRArtifact
	found := false
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if !found || info.ModTime().After(best.ModTime) {
			best = QRArtifact{File: filepath.Base(p), Path: p, ModTime: info.ModTime()}
			found = true
		}
	}
	return best, found
}
