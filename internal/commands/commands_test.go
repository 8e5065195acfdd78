package commands_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/gostego/internal/commands"
	"github.com/idelchi/gostego/internal/config"
	"github.com/idelchi/gostego/internal/imageio"
	"github.com/idelchi/gostego/internal/stego"
)

// Commands bind flags into the global viper instance, so these tests run sequentially
// and start from a clean instance.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()

	var out bytes.Buffer

	root := commands.NewRootCommand(&config.Config{}, "test")
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()

	return out.String(), err
}

func TestGenerate(t *testing.T) {
	out, err := execute(t, "generate")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	key := strings.TrimSpace(out)

	if decoded, err := hex.DecodeString(key); err != nil || len(decoded) != 32 {
		t.Errorf("generate printed %q", out)
	}
}

func TestShowMasksSecrets(t *testing.T) {
	key := strings.Repeat("ab", 32)

	stdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	os.Stdout = w

	_, err = execute(t, "embed", "--show", "--key", key, "--message", "hi", ".")

	os.Stdout = stdout

	w.Close()

	out, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatal(readErr)
	}

	if !errors.Is(err, cobraext.ErrExitGracefully) {
		t.Fatalf("embed --show error = %v, want ErrExitGracefully", err)
	}

	if strings.Contains(string(out), key) || !strings.Contains(string(out), "****") {
		t.Errorf("show output = %q", out)
	}

	if !strings.Contains(string(out), `"hi"`) {
		t.Errorf("show output lacks the message: %q", out)
	}
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cover.png")

	c, err := stego.NewCarrier(48, 48)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}

	if err := imageio.Encode(f, c.Image(), imageio.PNG); err != nil {
		t.Fatal(err)
	}

	f.Close()

	key := strings.Repeat("5a", 32)

	if out, err := execute(t, "embed", "-k", key, "-m", "over the wire", "-q", src); err != nil {
		t.Fatalf("embed: %v\n%s", err, out)
	}

	out, err := execute(t, "extract", "-k", key, "--stdout", filepath.Join(dir, "cover.stego.png"))
	if err != nil {
		t.Fatalf("extract: %v\n%s", err, out)
	}

	if !strings.Contains(out, "over the wire") {
		t.Errorf("extract printed %q", out)
	}
}

func TestValidationFailure(t *testing.T) {
	if _, err := execute(t, "embed", "--message", "hi", t.TempDir()); err == nil {
		t.Error("embed without key material succeeded")
	}

	_, err := execute(t, "extract", "--key", strings.Repeat("ab", 32), "--passphrase", "pw", t.TempDir())
	if err == nil {
		t.Fatal("extract with two key sources succeeded")
	}

	if !strings.Contains(err.Error(), "--key is mutually exclusive") {
		t.Errorf("error = %v, want a translated exclusivity message", err)
	}
}

func TestEnvironmentKey(t *testing.T) {
	t.Setenv("GOSTEGO_KEY", "not-hex")

	_, err := execute(t, "extract", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "--key") {
		t.Errorf("extract with GOSTEGO_KEY=not-hex: %v", err)
	}
}
