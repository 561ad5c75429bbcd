package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FFProbe reads video duration with ffprobe, either from PATH or inside a
// container when Image is set.
type FFProbe struct {
	Binary  string // default "ffprobe"
	Image   string // e.g. "linuxserver/ffmpeg"; empty runs Binary directly
	TempDir string // default os.TempDir()
}

func New(binary, image string) *FFProbe {
	return &FFProbe{Binary: binary, Image: image}
}

func (p *FFProbe) Duration(ctx context.Context, data []byte) (time.Duration, error) {
	if len(data) == 0 {
		return 0, errors.New("probe: empty video")
	}
	dir := p.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "reel-*.bin")
	if err != nil {
		return 0, fmt.Errorf("probe: temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, fmt.Errorf("probe: write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	out, err := p.command(ctx, f.Name()).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return 0, fmt.Errorf("probe: exit %d: %s", ee.ExitCode(), strings.TrimSpace(string(ee.Stderr)))
		}
		return 0, fmt.Errorf("probe: run: %w", err)
	}
	return parseDuration(string(out))
}

func (p *FFProbe) command(ctx context.Context, path string) *exec.Cmd {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
	}
	if p.Image != "" {
		// jalankan lewat docker, file di-mount read-only
		return exec.CommandContext(ctx, "docker", append([]string{"run", "--rm",
			"-v", fmt.Sprintf("%s:/in/%s:ro", path, filepath.Base(path)),
			"--entrypoint", "ffprobe",
			p.Image,
		}, append(args, "/in/"+filepath.Base(path))...)...)
	}
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	return exec.CommandContext(ctx, bin, append(args, path)...)
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("probe: unexpected duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
