package compose

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/video-stream/signreel/internal/storage"
	"github.com/video-stream/signreel/internal/transcript"
)

// fakeProber returns fixed durations by file name. Names listed in broken fail.
type fakeProber struct {
	durations map[string]time.Duration
	broken    map[string]bool
	calls     []string
}

func (p *fakeProber) Duration(_ context.Context, path string) (time.Duration, error) {
	name := filepath.Base(path)
	p.calls = append(p.calls, name)
	if p.broken[name] {
		return 0, errors.New("moov atom not found")
	}
	if d, ok := p.durations[name]; ok {
		return d, nil
	}
	return 3 * time.Second, nil
}

type fakeEncoder struct {
	jobs    []SegmentJob
	concats [][]string
	fail    bool

	// concatErr, when set, is returned by Concat after output was written.
	concatErr error
}

func (e *fakeEncoder) RenderSegment(_ context.Context, job SegmentJob) error {
	if e.fail {
		return errors.New("encoder exploded")
	}
	e.jobs = append(e.jobs, job)
	return os.WriteFile(job.Output, []byte("part"), 0644)
}

func (e *fakeEncoder) Concat(_ context.Context, parts []string, output string) error {
	for _, p := range parts {
		if _, err := os.Stat(p); err != nil {
			return err
		}
	}
	e.concats = append(e.concats, append([]string(nil), parts...))
	if err := os.WriteFile(output, []byte("video"), 0644); err != nil {
		return err
	}
	return e.concatErr
}

type fakeCaptions struct{ texts []string }

func (c *fakeCaptions) RenderFile(text, path string) error {
	c.texts = append(c.texts, text)
	return os.WriteFile(path, []byte(text), 0644)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
}

// mediaDir creates a directory with the given files. Names ending in .png get a
// valid image; everything else gets placeholder bytes.
func mediaDir(t *testing.T, names ...string) *storage.Catalog {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if strings.HasSuffix(n, ".png") {
			writePNG(t, p)
			continue
		}
		if err := os.WriteFile(p, []byte("not really media"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cat, err := storage.BuildCatalog(dir)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func build(t *testing.T, cat *storage.Catalog, p Prober, text string) ([]Segment, []Diagnostic) {
	t.Helper()
	return NewBuilder(cat, p).Build(context.Background(), transcript.ResolveText(text))
}

func TestBuild_OrderAndCaptions(t *testing.T) {
	cat := mediaDir(t, "hello.mp4", "world.png", "default_video.mp4")
	p := &fakeProber{durations: map[string]time.Duration{"hello.mp4": 1500 * time.Millisecond}}

	segs, _ := build(t, cat, p, "Hello world xyz")
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}

	want := []struct {
		caption  string
		asset    string
		dur      time.Duration
		fallback bool
	}{
		{"English: hello", "hello.mp4", 1500 * time.Millisecond, false},
		{"English: world", "world.png", StillDuration, false},
		{"English: xyz", "default_video.mp4", 3 * time.Second, true},
	}
	for i, w := range want {
		s := segs[i]
		if s.Index != i {
			t.Errorf("seg %d: Index = %d", i, s.Index)
		}
		if s.Caption != w.caption {
			t.Errorf("seg %d: caption = %q, want %q", i, s.Caption, w.caption)
		}
		if s.Source.Asset.Name != w.asset {
			t.Errorf("seg %d: asset = %q, want %q", i, s.Source.Asset.Name, w.asset)
		}
		if s.Source.Duration != w.dur {
			t.Errorf("seg %d: duration = %v, want %v", i, s.Source.Duration, w.dur)
		}
		if s.Fallback != w.fallback {
			t.Errorf("seg %d: fallback = %v", i, s.Fallback)
		}
	}
}

func TestBuild_FallbackCaptionKeepsTokenText(t *testing.T) {
	cat := mediaDir(t, "default_video.mp4")
	segs, diags := build(t, cat, &fakeProber{}, "Zebra!")
	if len(segs) != 1 || segs[0].Caption != "English: Zebra!" {
		t.Fatalf("segments = %+v", segs)
	}
	if len(diags) == 0 || diags[len(diags)-1].Level != LevelWarn {
		t.Errorf("expected a warning diagnostic, got %+v", diags)
	}
}

func TestBuild_NumericFirstMatchWins(t *testing.T) {
	cat := mediaDir(t, "3.mp4", "5.mp4", "default_video.mp4")
	p := &fakeProber{}

	segs, _ := build(t, cat, p, "305")
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Key != "3" || segs[0].Caption != "English: 3" {
		t.Errorf("segment = %+v, want key 3", segs[0])
	}
	// 5 is never probed once 3 resolved.
	if !reflect.DeepEqual(p.calls, []string{"3.mp4"}) {
		t.Errorf("probed %v", p.calls)
	}
}

func TestBuild_NumericSkipsMissingDigits(t *testing.T) {
	cat := mediaDir(t, "5.png")
	segs, _ := build(t, cat, &fakeProber{}, "305")
	if len(segs) != 1 || segs[0].Key != "5" {
		t.Fatalf("segments = %+v, want single key 5", segs)
	}
}

func TestBuild_NoFallbackSkipsToken(t *testing.T) {
	cat := mediaDir(t, "cat.mp4")
	segs, diags := build(t, cat, &fakeProber{}, "the cat")
	if len(segs) != 1 || segs[0].Key != "cat" || segs[0].Index != 0 {
		t.Fatalf("segments = %+v", segs)
	}
	found := false
	for _, d := range diags {
		if d.Token == "the" && d.Level == LevelWarn {
			found = true
		}
	}
	if !found {
		t.Errorf("no warning for skipped token: %+v", diags)
	}
}

func TestBuild_CorruptAssetFallsThrough(t *testing.T) {
	cat := mediaDir(t, "1.mp4", "2.mp4", "default_video.mp4")
	p := &fakeProber{broken: map[string]bool{"1.mp4": true}}

	segs, diags := build(t, cat, p, "12")
	if len(segs) != 1 || segs[0].Key != "2" {
		t.Fatalf("segments = %+v, want key 2", segs)
	}
	var sawUnreadable bool
	for _, d := range diags {
		if strings.Contains(d.Message, "1.mp4") {
			sawUnreadable = true
		}
	}
	if !sawUnreadable {
		t.Errorf("corrupt asset not reported: %+v", diags)
	}
}

func TestBuild_CorruptStillImage(t *testing.T) {
	cat := mediaDir(t, "dog.jpg", "default_video.mp4")
	segs, _ := build(t, cat, &fakeProber{}, "dog")
	if len(segs) != 1 || !segs[0].Fallback {
		t.Fatalf("undecodable jpg should fall back: %+v", segs)
	}
}

func TestBuild_SegmentsNeverExceedKeys(t *testing.T) {
	cat := mediaDir(t, "a.mp4", "1.png", "2.png", "default_video.mp4")
	for _, text := range []string{"", "a", "a b c", "12 21 a", "x y z 999"} {
		rs := transcript.ResolveText(text)
		segs, _ := NewBuilder(cat, &fakeProber{}).Build(context.Background(), rs)
		if len(segs) > transcript.KeyCount(rs) {
			t.Errorf("%q: %d segments > %d keys", text, len(segs), transcript.KeyCount(rs))
		}
		if len(segs) > len(rs) {
			t.Errorf("%q: %d segments > %d tokens", text, len(segs), len(rs))
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	cat := mediaDir(t, "hello.mp4", "2.png", "default_video.mp4")
	a, _ := build(t, cat, &fakeProber{}, "hello 42 there")
	b, _ := build(t, cat, &fakeProber{}, "hello 42 there")
	if !reflect.DeepEqual(Describe(a), Describe(b)) {
		t.Errorf("timelines differ:\n%+v\n%+v", Describe(a), Describe(b))
	}
}

func TestBuild_ReportCallback(t *testing.T) {
	cat := mediaDir(t, "hi.mp4")
	var got []Diagnostic
	b := NewBuilder(cat, &fakeProber{})
	b.Report = func(d Diagnostic) { got = append(got, d) }
	_, diags := b.Build(context.Background(), transcript.ResolveText("hi"))
	if !reflect.DeepEqual(got, diags) {
		t.Errorf("callback saw %+v, returned %+v", got, diags)
	}
	if len(got) != 1 || got[0].Message != "Adding media for part: hi" {
		t.Errorf("diagnostics = %+v", got)
	}
}

func TestAssemble_Empty(t *testing.T) {
	enc := &fakeEncoder{}
	out := filepath.Join(t.TempDir(), "out", "result.mp4")
	_, err := NewAssembler(enc, &fakeCaptions{}, t.TempDir()).Assemble(context.Background(), nil, out)
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("err = %v, want ErrEmptyTimeline", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output must not be written for an empty timeline")
	}
	if len(enc.jobs)+len(enc.concats) != 0 {
		t.Error("encoder must not be called")
	}
}

func TestAssemble_RendersInOrder(t *testing.T) {
	cat := mediaDir(t, "hello.mp4", "world.png")
	segs, _ := build(t, cat, &fakeProber{}, "hello world")

	enc := &fakeEncoder{}
	caps := &fakeCaptions{}
	work := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out.mp4")

	got, err := NewAssembler(enc, caps, work).Assemble(context.Background(), segs, out)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if got != out {
		t.Errorf("path = %q, want %q", got, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output missing: %v", err)
	}

	if !reflect.DeepEqual(caps.texts, []string{"English: hello", "English: world"}) {
		t.Errorf("captions = %v", caps.texts)
	}
	if len(enc.jobs) != 2 {
		t.Fatalf("rendered %d segments", len(enc.jobs))
	}
	if enc.jobs[0].Still || !enc.jobs[1].Still {
		t.Errorf("still flags = %v, %v", enc.jobs[0].Still, enc.jobs[1].Still)
	}
	if enc.jobs[1].Duration != StillDuration {
		t.Errorf("image duration = %v", enc.jobs[1].Duration)
	}
	if len(enc.concats) != 1 || len(enc.concats[0]) != 2 ||
		enc.concats[0][0] != enc.jobs[0].Output || enc.concats[0][1] != enc.jobs[1].Output {
		t.Errorf("concat order = %v", enc.concats)
	}

	// temp parts are cleaned up
	entries, _ := os.ReadDir(work)
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned: %d entries", len(entries))
	}
}

func TestAssemble_EncoderFailure(t *testing.T) {
	cat := mediaDir(t, "hello.mp4")
	segs, _ := build(t, cat, &fakeProber{}, "hello")
	out := filepath.Join(t.TempDir(), "out.mp4")

	_, err := NewAssembler(&fakeEncoder{fail: true}, &fakeCaptions{}, t.TempDir()).Assemble(context.Background(), segs, out)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no output expected after failure")
	}
}

func TestAssemble_FailedConcatLeavesNoOutput(t *testing.T) {
	cat := mediaDir(t, "hello.mp4")
	segs, _ := build(t, cat, &fakeProber{}, "hello")
	work := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.mp4")

	enc := &fakeEncoder{concatErr: errors.New("signal: killed")}
	_, err := NewAssembler(enc, &fakeCaptions{}, work).Assemble(context.Background(), segs, out)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("truncated output left at %s", out)
	}
	entries, _ := os.ReadDir(work)
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned: %d entries", len(entries))
	}
}

func TestAssemble_KeepsPreviousOutputOnFailure(t *testing.T) {
	cat := mediaDir(t, "hello.mp4")
	segs, _ := build(t, cat, &fakeProber{}, "hello")
	out := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(out, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	enc := &fakeEncoder{concatErr: errors.New("disk full")}
	if _, err := NewAssembler(enc, &fakeCaptions{}, t.TempDir()).Assemble(context.Background(), segs, out); err == nil {
		t.Fatal("expected error")
	}
	data, _ := os.ReadFile(out)
	if string(data) != "previous" {
		t.Errorf("output = %q, want previous contents", data)
	}
}

func TestDescribe(t *testing.T) {
	cat := mediaDir(t, "7.png", "default_video.mp4")
	segs, _ := build(t, cat, &fakeProber{}, "7 nope")
	entries := Describe(segs)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Key != "7" || entries[0].Duration != 2 || entries[0].Asset != "7.png" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if !entries[1].Fallback || entries[1].Key != "" || entries[1].Token != "nope" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if TotalDuration(segs) != 5*time.Second {
		t.Errorf("total = %v", TotalDuration(segs))
	}
}
