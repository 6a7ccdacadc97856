package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureMagic maps media extensions to the leading bytes a real file of that
// kind would carry, so validation code that sniffs headers sees plausible
// input.
var fixtureMagic = map[string][]byte{
	".mp4":  {0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'},
	".mov":  {0x00, 0x00, 0x00, 0x14, 'f', 't', 'y', 'p', 'q', 't', ' ', ' '},
	".mkv":  {0x1a, 0x45, 0xdf, 0xa3},
	".webm": {0x1a, 0x45, 0xdf, 0xa3},
	".mp3":  {'I', 'D', '3'},
	".wav":  {'R', 'I', 'F', 'F'},
	".flac": {'f', 'L', 'a', 'C'},
	".png":  {0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
	".jpg":  {0xff, 0xd8, 0xff},
	".jpeg": {0xff, 0xd8, 0xff},
	".gif":  {'G', 'I', 'F', '8', '9', 'a'},
}

// WriteMediaFile creates a fake media asset at path, padded to size bytes.
// The file starts with the magic bytes matching its extension when one is
// known, so it passes any header sniffing the same way a real asset would.
// A size smaller than the magic still writes the full magic.
func WriteMediaFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	magic := fixtureMagic[strings.ToLower(filepath.Ext(path))]
	if _, err := f.Write(magic); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	remaining := size - int64(len(magic))
	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = byte('a' + i%26)
	}
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}
