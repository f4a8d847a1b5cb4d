package wreckage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

var (
	// ErrUnsupported reports that a platform capability is not available.
	ErrUnsupported = errors.New("wreckage: capability unavailable")
	// ErrNoArtifact is returned when there is nothing to deliver.
	ErrNoArtifact = errors.New("wreckage: no artifact to deliver")
)

// commandWaitDelay bounds how long a delivery command may keep its pipes
// open after it exits or its context is done.
const commandWaitDelay = 2 * time.Second

// An Outcome records which delivery path was taken.
type Outcome int

// All the possible delivery outcomes.
const (
	OutcomeCopied Outcome = iota
	OutcomeShared
	OutcomeDownloaded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCopied:
		return "copied"
	case OutcomeShared:
		return "shared"
	case OutcomeDownloaded:
		return "downloaded"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Fallback reports whether the outcome came from a fallback path.
func (o Outcome) Fallback() bool {
	return o == OutcomeDownloaded
}

// An ImageClipboard places PNG bytes on the system clipboard.
type ImageClipboard interface {
	WriteImage(ctx context.Context, png []byte) error
}

// ShareMetadata accompanies a shared artifact.
type ShareMetadata struct {
	Title       string
	Description string
}

// A Sharer hands the file at path to a native share target.
type Sharer interface {
	Share(ctx context.Context, path string, meta ShareMetadata) error
}

// Delivery hands artifacts to the user. Missing capabilities fall back to a
// file download; only a failed download is an error.
type Delivery struct {
	Clipboard   ImageClipboard
	Sharer      Sharer
	DownloadDir string
	Logger      *zap.Logger
}

// CopyToClipboard copies a to the clipboard, downloading it instead when the
// clipboard cannot take images.
func (d *Delivery) CopyToClipboard(ctx context.Context, a *Artifact) (Outcome, error) {
	if a == nil {
		return OutcomeDownloaded, ErrNoArtifact
	}
	if d.Clipboard != nil {
		err := d.Clipboard.WriteImage(ctx, a.PNG)
		if err == nil {
			return OutcomeCopied, nil
		}
		d.logger().Debug("clipboard write failed, downloading", zap.Error(err))
	}
	return d.download(a)
}

// Share offers a to the share target, falling back to CopyToClipboard.
func (d *Delivery) Share(ctx context.Context, a *Artifact, meta ShareMetadata) (Outcome, error) {
	if a == nil {
		return OutcomeDownloaded, ErrNoArtifact
	}
	if d.Sharer != nil {
		err := d.shareFile(ctx, a, meta)
		if err == nil {
			return OutcomeShared, nil
		}
		d.logger().Debug("share failed, copying", zap.Error(err))
	}
	return d.CopyToClipboard(ctx, a)
}

func (d *Delivery) shareFile(ctx context.Context, a *Artifact, meta ShareMetadata) error {
	f, err := os.CreateTemp("", "wreckage-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(a.PNG); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return d.Sharer.Share(ctx, f.Name(), meta)
}

func (d *Delivery) download(a *Artifact) (Outcome, error) {
	dir := d.DownloadDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return OutcomeDownloaded, fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, "wreckage-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, a.PNG, 0o644); err != nil {
		return OutcomeDownloaded, fmt.Errorf("write download: %w", err)
	}
	d.logger().Info("artifact downloaded", zap.String("path", path))
	return OutcomeDownloaded, nil
}

func (d *Delivery) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

var (
	clipboardWriteAll    = clipboard.WriteAll
	clipboardUnsupported = clipboard.Unsupported
)

// CopyText places the rewritten text on the clipboard.
func CopyText(text string) error {
	if clipboardUnsupported {
		return ErrUnsupported
	}
	return clipboardWriteAll(text)
}

var lookPath = exec.LookPath

// runDetached runs cmd with its output discarded, so a child left behind to
// serve the selection cannot hold Wait open.
func runDetached(cmd *exec.Cmd) error {
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.WaitDelay = commandWaitDelay
	return cmd.Run()
}

// CommandClipboard writes images through wl-copy or xclip.
type CommandClipboard struct{}

var imageClipboardCommands = [][]string{
	{"wl-copy", "--type", "image/png"},
	{"xclip", "-selection", "clipboard", "-t", "image/png", "-i"},
}

// WriteImage implements ImageClipboard.
func (CommandClipboard) WriteImage(ctx context.Context, png []byte) error {
	for _, argv := range imageClipboardCommands {
		path, err := lookPath(argv[0])
		if err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, path, argv[1:]...)
		cmd.Stdin = bytes.NewReader(png)
		if err := runDetached(cmd); err != nil {
			return fmt.Errorf("%s: %w", argv[0], err)
		}
		return nil
	}
	return ErrUnsupported
}

// CommandSharer runs Argv with the artifact path appended.
type CommandSharer struct {
	Argv []string
}

// Share implements Sharer.
func (s CommandSharer) Share(ctx context.Context, path string, meta ShareMetadata) error {
	if len(s.Argv) == 0 {
		return ErrUnsupported
	}
	args := append(slices.Clone(s.Argv[1:]), path)
	cmd := exec.CommandContext(ctx, s.Argv[0], args...)
	cmd.Env = append(os.Environ(),
		"WRECKAGE_SHARE_TITLE="+meta.Title,
		"WRECKAGE_SHARE_DESCRIPTION="+meta.Description)
	if err := runDetached(cmd); err != nil {
		return fmt.Errorf("%s: %w", s.Argv[0], err)
	}
	return nil
}
