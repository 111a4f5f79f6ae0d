package feed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/mocks"
	"github.com/user/framecast/pkg/pacer"
	"github.com/user/framecast/pkg/pipeline"
	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/relay"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// filled returns a relay already holding items and closed for sending.
func filled(items ...[]byte) *relay.Relay {
	r := relay.New("test", len(items)+1)
	for _, item := range items {
		if err := r.Put(context.Background(), item); err != nil {
			panic(err)
		}
	}
	r.CloseSend()
	return r
}

func TestStage_SplitsBatchesIntoFrames(t *testing.T) {
	sink := &mocks.StreamSink{}
	r := filled([]byte("aaabbbccc"), []byte("dddeee"))

	result, err := New("video", logger.NewNoop()).Execute(context.Background(), pipeline.FeedInput{
		Relay:    r,
		Sink:     sink,
		Pacer:    pacer.New(0),
		UnitSize: 3,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Units != 5 || result.Bytes != 15 || !result.Drained {
		t.Errorf("unexpected result %+v", result)
	}
	want := []string{"aaa", "bbb", "ccc", "ddd", "eee"}
	if sink.WriteCount() != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), sink.WriteCount())
	}
	for i, w := range want {
		if string(sink.Writes[i]) != w {
			t.Errorf("write %d: expected %q, got %q", i, w, sink.Writes[i])
		}
	}
	if sink.Closes() != 1 {
		t.Errorf("expected sink closed once, got %d", sink.Closes())
	}
}

func TestStage_WholeItemsWhenUnitSizeZero(t *testing.T) {
	sink := &mocks.StreamSink{}
	r := filled([]byte("block-1"), []byte("blk2"))

	result, err := New("audio", logger.NewNoop()).Execute(context.Background(), pipeline.FeedInput{
		Relay: r,
		Sink:  sink,
		Pacer: pacer.New(0),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Units != 2 || !bytes.Equal(sink.Bytes(), []byte("block-1blk2")) {
		t.Errorf("unexpected output %+v %q", result, sink.Bytes())
	}
}

func TestStage_Paced(t *testing.T) {
	sink := &mocks.StreamSink{}
	items := make([][]byte, 6)
	for i := range items {
		items[i] = []byte{byte(i)}
	}
	r := filled(items...)

	start := time.Now()
	p := pacer.New(50)
	_, err := New("video", logger.NewNoop()).Execute(context.Background(), pipeline.FeedInput{
		Relay: r,
		Sink:  sink,
		Pacer: p,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("6 units at 50/s should take at least 100ms, took %v", elapsed)
	}
}

func TestStage_BrokenSink(t *testing.T) {
	sink := &mocks.StreamSink{FailAfter: 3}
	r := filled(bytes.Repeat([]byte{1}, 30))

	result, err := New("video", logger.NewNoop()).Execute(context.Background(), pipeline.FeedInput{
		Relay:    r,
		Sink:     sink,
		Pacer:    pacer.New(0),
		UnitSize: 3,
	})
	if !errors.Is(err, ports.ErrSinkClosed) {
		t.Fatalf("expected ErrSinkClosed, got %v", err)
	}
	if result.Units != 3 || result.Drained {
		t.Errorf("expected 3 units delivered without draining, got %+v", result)
	}
	if sink.Closes() != 1 {
		t.Errorf("expected sink closed once, got %d", sink.Closes())
	}
}

func TestStage_CancelledWhileWaiting(t *testing.T) {
	sink := &mocks.StreamSink{}
	r := relay.New("video", 1) // never fed, never closed

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New("video", logger.NewNoop()).Execute(ctx, pipeline.FeedInput{
		Relay: r,
		Sink:  sink,
		Pacer: pacer.New(25),
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if sink.Closes() != 1 {
		t.Errorf("sink must be closed on cancellation, got %d closes", sink.Closes())
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		size int
		want []string
	}{
		{"abcdef", 2, []string{"ab", "cd", "ef"}},
		{"abcde", 2, []string{"ab", "cd", "e"}},
		{"abc", 0, []string{"abc"}},
		{"abc", 5, []string{"abc"}},
	}
	for _, tt := range tests {
		got := split([]byte(tt.in), tt.size)
		if len(got) != len(tt.want) {
			t.Errorf("split(%q, %d) = %q", tt.in, tt.size, got)
			continue
		}
		for i := range got {
			if string(got[i]) != tt.want[i] {
				t.Errorf("split(%q, %d)[%d] = %q, want %q", tt.in, tt.size, i, got[i], tt.want[i])
			}
		}
	}
}
