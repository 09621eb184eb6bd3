package transfer

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"

	"transfercode/internal/fileutil"
)

// The fake media format is plain text: a payload line, a marker, then
// k=v tag lines. Tags live inside the file so a byte copy carries them
// along exactly like a real container.
const tagMarker = "\n--TAGS--\n"

func encodeMedia(payload string, tags map[string]string) []byte {
	var b strings.Builder
	b.WriteString(payload)
	b.WriteString(tagMarker)
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, tags[k])
	}
	return []byte(b.String())
}

func decodeMedia(data []byte) (string, map[string]string, error) {
	payload, rest, found := strings.Cut(string(data), tagMarker)
	if !found {
		return "", nil, fmt.Errorf("not fake media")
	}
	tags := map[string]string{}
	for _, line := range strings.Split(rest, "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			tags[k] = v
		}
	}
	return payload, tags, nil
}

func writeMedia(t *testing.T, path, payload string, tags map[string]string) {
	t.Helper()
	if err := os.WriteFile(path, encodeMedia(payload, tags), 0644); err != nil {
		t.Fatal(err)
	}
}

func readMedia(t *testing.T, path string) (string, map[string]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	payload, tags, err := decodeMedia(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return payload, tags
}

// fakeEngine re-encodes the payload line and stamps an encoder tag,
// like a real encoder would
type fakeEngine struct {
	transcodes  int
	identifyErr error
	err         error
	skipOutput  bool
}

func (e *fakeEngine) Identify(ctx context.Context, path string) error {
	if e.identifyErr != nil {
		return e.identifyErr
	}
	_, err := os.Stat(path)
	return err
}

func (e *fakeEngine) Transcode(ctx context.Context, src, dest string, encoderArgs []string) error {
	if e.err != nil {
		return e.err
	}
	e.transcodes++
	if e.skipOutput {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	payload, _, err := decodeMedia(data)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, encodeMedia("enc("+payload+")", map[string]string{"encoder": "fakeenc"}), 0644)
}

// fakeCopier counts byte copies
type fakeCopier struct {
	copies int
	err    error
}

func (c *fakeCopier) Copy(ctx context.Context, src, dest string) error {
	if c.err != nil {
		return c.err
	}
	c.copies++
	if err := fileutil.CopyFile(src, dest); err != nil {
		return err
	}
	return fileutil.CopyMode(src, dest)
}

// fakeTagEditor reads and writes the fake media tag block in place
type fakeTagEditor struct {
	rewrites int
}

func (e *fakeTagEditor) Read(ctx context.Context, path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, tags, err := decodeMedia(data)
	return tags, err
}

func (e *fakeTagEditor) Rewrite(ctx context.Context, path string, set map[string]string, del []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	payload, tags, err := decodeMedia(data)
	if err != nil {
		return err
	}
	for _, k := range del {
		delete(tags, k)
	}
	for k, v := range set {
		tags[k] = v
	}
	e.rewrites++
	return os.WriteFile(path, encodeMedia(payload, tags), 0644)
}
