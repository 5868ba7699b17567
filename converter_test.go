package log2html

// Notes:
// - Tests run real conversions against files in t.TempDir(); there is no
//   mock for the file system because the job's contract is about files.
// - The clock and ID generator are injected so records are deterministic.
// - Partial output after a write failure is documented behavior and is not
//   asserted byte-for-byte.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const utf8BOM = "\xEF\xBB\xBF"

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestConverter() *Converter {
	n := 0
	return NewConverter(
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func expectedDocument(name string, body ...string) string {
	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n")
	b.WriteString("<head>\n")
	b.WriteString("<meta charset=\"utf-8\" />\n")
	b.WriteString("<title>" + name + "</title>\n")
	b.WriteString("<style>body{font-family:Consolas,monospace;background:#111111;color:#DDDDDD;margin:0} .l{white-space:pre; padding:0 8px;}</style>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	b.WriteString("<h3 style=\"margin:8px\">" + name + "</h3>\n")
	for _, line := range body {
		b.WriteString(line + "\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// TestConvert - Full document output
// ---------------------------------------------------------------------------

func TestConvert_Document(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "app.log")
	writeFile(t, input, []byte("ERROR one\nplain <x>\n\nFATAL crash ERROR\n"))

	rules := MustCompile([]KeywordRule{
		{Keyword: "ERROR", Color: "#FF0000"},
		{Keyword: "FATAL", Color: "#80FF00FF", Scope: ScopeLine},
	}, Options{})

	rec, err := newTestConverter().Convert(context.Background(), Job{
		InputPath: input,
		Rules:     rules,
		Theme:     DefaultTheme(),
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	wantPath := filepath.Join(dir, "app.html")
	if rec.OutputPath != wantPath {
		t.Errorf("OutputPath = %q, want %q", rec.OutputPath, wantPath)
	}
	if rec.OriginalPath != input {
		t.Errorf("OriginalPath = %q, want %q", rec.OriginalPath, input)
	}
	if rec.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", rec.ID)
	}
	if !rec.ConvertedAt.Equal(fixedTime) {
		t.Errorf("ConvertedAt = %v, want %v", rec.ConvertedAt, fixedTime)
	}

	want := expectedDocument("app.log",
		`<div class="l"><span style="color:#FF0000">ERROR</span> one</div>`,
		`<div class="l">plain &lt;x&gt;</div>`,
		`<div class="l"></div>`,
		`<div class="l" style="color:#FF00FF">FATAL crash <span style="color:#FF0000">ERROR</span></div>`,
	)
	if got := readFile(t, wantPath); got != want {
		t.Errorf("document mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestConvert_OutputDirAndOverwrite(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	input := filepath.Join(inDir, "server.2025.log")
	writeFile(t, input, []byte("hello\n"))

	stale := filepath.Join(outDir, "server.2025.html")
	writeFile(t, stale, []byte("stale content that is much longer than the new document body ..."))

	rec, err := newTestConverter().Convert(context.Background(), Job{InputPath: input, OutputDir: outDir})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if rec.OutputPath != stale {
		t.Errorf("OutputPath = %q, want %q", rec.OutputPath, stale)
	}
	if got := readFile(t, stale); got != expectedDocument("server.2025.log", `<div class="l">hello</div>`) {
		t.Errorf("output not overwritten: %q", got)
	}
}

func TestConvert_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "run.log")
	writeFile(t, input, []byte("WARN a\r\nERROR b\r\nINFO c"))

	rules := MustCompile(DefaultRules(), DefaultOptions())
	conv := newTestConverter()

	rec, err := conv.Convert(context.Background(), Job{InputPath: input, Rules: rules})
	if err != nil {
		t.Fatalf("first Convert() error = %v", err)
	}
	first := readFile(t, rec.OutputPath)

	rec, err = conv.Convert(context.Background(), Job{InputPath: input, Rules: rules})
	if err != nil {
		t.Fatalf("second Convert() error = %v", err)
	}
	if second := readFile(t, rec.OutputPath); first != second {
		t.Error("second conversion differs from first")
	}
}

func TestConvert_LineEndings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "crlf.log")
	writeFile(t, input, []byte("one\r\ntwo\nthree"))

	rec, err := newTestConverter().Convert(context.Background(), Job{InputPath: input})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := expectedDocument("crlf.log",
		`<div class="l">one</div>`,
		`<div class="l">two</div>`,
		`<div class="l">three</div>`,
	)
	if got := readFile(t, rec.OutputPath); got != want {
		t.Errorf("document mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "empty.log")
	writeFile(t, input, nil)

	rec, err := newTestConverter().Convert(context.Background(), Job{InputPath: input})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := readFile(t, rec.OutputPath); got != expectedDocument("empty.log") {
		t.Errorf("document mismatch: %q", got)
	}
}

func TestConvert_TitleIsEscaped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "a&b's.log")
	writeFile(t, input, []byte("x\n"))

	rec, err := newTestConverter().Convert(context.Background(), Job{InputPath: input})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	got := readFile(t, rec.OutputPath)
	if !strings.Contains(got, "<title>a&amp;b&#39;s.log</title>") {
		t.Errorf("title not escaped in %q", got)
	}
}

func TestConvert_Theme(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "t.log")
	writeFile(t, input, []byte("x\n"))

	rec, err := newTestConverter().Convert(context.Background(), Job{
		InputPath: input,
		Theme:     Theme{Background: "#FFFFFFFF", Foreground: "navy"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	got := readFile(t, rec.OutputPath)
	if !strings.Contains(got, "background:#FFFFFF;color:navy;") {
		t.Errorf("theme colors missing from %q", got)
	}
}

func TestConvert_ThemeCannotEscapeStyleBlock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "t.log")
	writeFile(t, input, []byte("x\n"))

	rec, err := newTestConverter().Convert(context.Background(), Job{
		InputPath: input,
		Theme:     Theme{Background: "red}</style><script>alert(1)</script>", Foreground: "blue"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	got := readFile(t, rec.OutputPath)
	if strings.Contains(got, "</style><script>") {
		t.Errorf("theme value broke out of style block: %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Encoding - Byte-order marks and named encodings
// ---------------------------------------------------------------------------

func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestConvert_Encoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  []byte
		encoding string
		wantLine string
	}{
		{
			name:     "utf-8 with BOM",
			content:  append([]byte(utf8BOM), []byte("ERROR é\n")...),
			wantLine: `<div class="l"><span style="color:#FF0000">ERROR</span> é</div>`,
		},
		{
			name:     "utf-16le with BOM",
			content:  utf16LE("ERROR é\n"),
			wantLine: `<div class="l"><span style="color:#FF0000">ERROR</span> é</div>`,
		},
		{
			name:     "windows-1252",
			content:  []byte("ERROR caf\xE9\n"),
			encoding: "windows-1252",
			wantLine: `<div class="l"><span style="color:#FF0000">ERROR</span> café</div>`,
		},
		{
			name:     "BOM wins over named encoding",
			content:  append([]byte(utf8BOM), []byte("ERROR é\n")...),
			encoding: "windows-1252",
			wantLine: `<div class="l"><span style="color:#FF0000">ERROR</span> é</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			input := filepath.Join(dir, "enc.log")
			writeFile(t, input, tt.content)

			rules := MustCompile([]KeywordRule{{Keyword: "ERROR", Color: "#FF0000"}}, Options{})
			rec, err := newTestConverter().Convert(context.Background(), Job{
				InputPath: input,
				Rules:     rules,
				Encoding:  tt.encoding,
			})
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got := readFile(t, rec.OutputPath); got != expectedDocument("enc.log", tt.wantLine) {
				t.Errorf("document mismatch: %q", got)
			}
		})
	}
}

func TestConvert_UnknownEncoding(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "x.log")
	writeFile(t, input, []byte("x\n"))

	_, err := newTestConverter().Convert(context.Background(), Job{InputPath: input, Encoding: "klingon-8"})
	if !errors.Is(err, ErrUnknownEncoding) {
		t.Fatalf("Convert() error = %v, want ErrUnknownEncoding", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "x.html")); !os.IsNotExist(statErr) {
		t.Error("output created for unknown encoding")
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Errors - Failure taxonomy
// ---------------------------------------------------------------------------

func TestConvert_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "missing.log")

	rec, err := newTestConverter().Convert(context.Background(), Job{InputPath: input})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Convert() error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Convert() error = %v, want it to match os.ErrNotExist", err)
	}
	if rec != nil {
		t.Errorf("Convert() record = %+v, want nil", rec)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing.html")); !os.IsNotExist(statErr) {
		t.Error("output file created for missing input")
	}
}

func TestConvert_DirectoryInput(t *testing.T) {
	t.Parallel()

	_, err := newTestConverter().Convert(context.Background(), Job{InputPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Convert() error = %v, want ErrInvalidInput", err)
	}
}

func TestConvert_MissingOutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "x.log")
	writeFile(t, input, []byte("x\n"))

	_, err := newTestConverter().Convert(context.Background(), Job{
		InputPath: input,
		OutputDir: filepath.Join(dir, "does", "not", "exist"),
	})
	if !errors.Is(err, ErrOutputWrite) {
		t.Fatalf("Convert() error = %v, want ErrOutputWrite", err)
	}
}

func TestConvert_OutputWouldOverwriteInput(t *testing.T) {
	t.Parallel()

	const content = "ERROR one\nERROR two\n"

	tests := []struct {
		name      string
		outputDir func(dir string) string
	}{
		{"next to the input", func(string) string { return "" }},
		{"explicit input directory", func(dir string) string { return dir + string(filepath.Separator) + "." }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			input := filepath.Join(dir, "page.html")
			writeFile(t, input, []byte(content))

			rec, err := newTestConverter().Convert(context.Background(), Job{
				InputPath: input,
				OutputDir: tt.outputDir(dir),
			})
			if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, ErrOutputIsInput) {
				t.Fatalf("Convert() error = %v, want ErrInvalidInput and ErrOutputIsInput", err)
			}
			if rec != nil {
				t.Errorf("Convert() record = %+v, want nil", rec)
			}
			if got := readFile(t, input); got != content {
				t.Errorf("input = %q, want it untouched", got)
			}
		})
	}
}

func TestConvert_PanicBecomesError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "x.log")
	writeFile(t, input, []byte("x\n"))

	conv := NewConverter(WithIDGenerator(func() string { panic("id source exhausted") }))
	rec, err := conv.Convert(context.Background(), Job{InputPath: input})
	if !errors.Is(err, ErrOutputWrite) {
		t.Fatalf("Convert() error = %v, want ErrOutputWrite", err)
	}
	if !strings.Contains(err.Error(), "id source exhausted") {
		t.Errorf("Convert() error = %v, want the panic value", err)
	}
	if rec != nil {
		t.Errorf("Convert() record = %+v, want nil", rec)
	}
}

func TestConvert_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "x.log")
	writeFile(t, input, bytes.Repeat([]byte("line\n"), 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestConverter().Convert(ctx, Job{InputPath: input})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Convert() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestReconvert - In-place refresh of a record
// ---------------------------------------------------------------------------

func TestReconvert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o750); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "svc.log")
	writeFile(t, input, []byte("first\n"))

	now := fixedTime
	conv := NewConverter(WithClock(func() time.Time { return now }))

	rec, err := conv.Convert(context.Background(), Job{InputPath: input, OutputDir: outDir})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	id := rec.ID
	if id == "" {
		t.Fatal("default ID generator produced empty ID")
	}

	writeFile(t, input, []byte("ERROR second\n"))
	now = fixedTime.Add(time.Hour)
	rules := MustCompile([]KeywordRule{{Keyword: "ERROR", Color: "#FF0000"}}, Options{})

	if err := conv.Reconvert(context.Background(), rec, rules, DefaultTheme(), ""); err != nil {
		t.Fatalf("Reconvert() error = %v", err)
	}

	if rec.ID != id {
		t.Errorf("ID changed from %q to %q", id, rec.ID)
	}
	if !rec.ConvertedAt.Equal(now) {
		t.Errorf("ConvertedAt = %v, want %v", rec.ConvertedAt, now)
	}
	if rec.OutputPath != filepath.Join(outDir, "svc.html") {
		t.Errorf("OutputPath = %q", rec.OutputPath)
	}
	got := readFile(t, rec.OutputPath)
	if !strings.Contains(got, `<span style="color:#FF0000">ERROR</span> second`) {
		t.Errorf("reconverted document not refreshed: %q", got)
	}
}

func TestReconvert_Errors(t *testing.T) {
	t.Parallel()

	conv := newTestConverter()
	if err := conv.Reconvert(context.Background(), nil, nil, Theme{}, ""); !errors.Is(err, ErrNilRecord) {
		t.Errorf("Reconvert(nil) error = %v, want ErrNilRecord", err)
	}

	rec := &ConversionRecord{ID: "keep", OriginalPath: filepath.Join(t.TempDir(), "gone.log"), OutputPath: "old.html"}
	err := conv.Reconvert(context.Background(), rec, nil, Theme{}, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reconvert() error = %v, want ErrNotFound", err)
	}
	if rec.OutputPath != "old.html" || rec.ID != "keep" {
		t.Errorf("record mutated on failure: %+v", rec)
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		outputDir string
		want      string
	}{
		{"/logs/app.log", "", "/logs/app.html"},
		{"/logs/app.log", "/out", "/out/app.html"},
		{"/logs/app", "/out", "/out/app.html"},
		{"/logs/app.2025.txt", "", "/logs/app.2025.html"},
		{"relative.log", "", "relative.html"},
	}

	for _, tt := range tests {
		got := OutputPath(filepath.FromSlash(tt.input), filepath.FromSlash(tt.outputDir))
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.input, tt.outputDir, got, tt.want)
		}
	}
}
