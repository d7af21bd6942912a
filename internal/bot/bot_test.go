package bot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"serotonyl.ru/delta-bot/internal/config"
	"serotonyl.ru/delta-bot/internal/discuit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitFor = 2 * time.Second

// fakeSource — подписка, которая на каждом подключении вызывает emit и ждёт отмены.
type fakeSource struct {
	subscribed chan []string
	calls      atomic.Int32
	emit       func(n int, ctx context.Context, h discuit.CommentHandler) error
}

func newFakeSource(emit func(n int, ctx context.Context, h discuit.CommentHandler) error) *fakeSource {
	return &fakeSource{subscribed: make(chan []string, 16), emit: emit}
}

func (s *fakeSource) WatchComments(ctx context.Context, ids []string, h discuit.CommentHandler) error {
	n := int(s.calls.Add(1))
	s.subscribed <- ids
	if s.emit != nil {
		if err := s.emit(n, ctx, h); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeCommunities struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeCommunities) set(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = ids
}

func (f *fakeCommunities) WatchedIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...), nil
}

// recorder — обработчик, который пишет ID комментариев в канал.
type recorder struct {
	seen    chan string
	block   chan struct{}
	panicOn string
	calls   atomic.Int32
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan string, 16)}
}

func (r *recorder) HandleComment(ctx context.Context, _ string, c *discuit.Comment) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	if c.ID == r.panicOn {
		panic("boom")
	}
	r.seen <- c.ID
}

func testConfig() *config.Config {
	return &config.Config{BotMaxInflight: 4, WatchRetryDelay: 10 * time.Millisecond}
}

func comment(id, communityID string) *discuit.Comment {
	return &discuit.Comment{ID: id, CommunityID: communityID, Username: "alice", Body: "!delta"}
}

func start(t *testing.T, b *Bot) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Start(ctx) }()
	return cancel, errCh
}

func stop(t *testing.T, cancel context.CancelFunc, errCh <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Start не вернулся после отмены")
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("timeout")
	}
	var zero T
	return zero
}

func TestBot_DispatchesWatchedCommunitiesOnly(t *testing.T) {
	src := newFakeSource(func(_ int, ctx context.Context, h discuit.CommentHandler) error {
		h(ctx, "other", comment("c0", "elsewhere"))
		h(ctx, "changemyview", comment("c1", "cmv-id"))
		return nil
	})
	cm := &fakeCommunities{}
	cm.set("cmv-id")
	rec := newRecorder()

	cancel, errCh := start(t, New(src, rec, cm, testConfig()))

	require.Equal(t, []string{"cmv-id"}, receive(t, src.subscribed))
	require.Equal(t, "c1", receive(t, rec.seen))

	stop(t, cancel, errCh)
	require.Equal(t, int32(1), rec.calls.Load())
}

func TestBot_ReloadResubscribes(t *testing.T) {
	src := newFakeSource(nil)
	cm := &fakeCommunities{}
	cm.set("a")
	b := New(src, newRecorder(), cm, testConfig())

	cancel, errCh := start(t, b)
	require.Equal(t, []string{"a"}, receive(t, src.subscribed))

	cm.set("a", "b")
	b.Reload()
	require.Equal(t, []string{"a", "b"}, receive(t, src.subscribed))

	stop(t, cancel, errCh)
}

func TestBot_ReloadIsCoalesced(t *testing.T) {
	b := New(newFakeSource(nil), newRecorder(), &fakeCommunities{}, testConfig())

	b.Reload()
	b.Reload()
	b.Reload()
	require.Len(t, b.reloadCh, 1)
}

func TestBot_EmptyListWaitsForReload(t *testing.T) {
	src := newFakeSource(nil)
	cm := &fakeCommunities{}
	b := New(src, newRecorder(), cm, testConfig())

	cancel, errCh := start(t, b)

	time.Sleep(20 * time.Millisecond)
	require.Zero(t, src.calls.Load())

	cm.set("a")
	b.Reload()
	require.Equal(t, []string{"a"}, receive(t, src.subscribed))

	stop(t, cancel, errCh)
}

func TestBot_ResubscribesAfterError(t *testing.T) {
	src := newFakeSource(func(n int, _ context.Context, _ discuit.CommentHandler) error {
		if n == 1 {
			return errors.New("connection reset")
		}
		return nil
	})
	cm := &fakeCommunities{}
	cm.set("a")

	cancel, errCh := start(t, New(src, newRecorder(), cm, testConfig()))

	receive(t, src.subscribed)
	receive(t, src.subscribed)

	stop(t, cancel, errCh)
	require.GreaterOrEqual(t, src.calls.Load(), int32(2))
}

func TestBot_PanicDoesNotStopLoop(t *testing.T) {
	src := newFakeSource(func(_ int, ctx context.Context, h discuit.CommentHandler) error {
		h(ctx, "changemyview", comment("bad", "cmv-id"))
		h(ctx, "changemyview", comment("good", "cmv-id"))
		return nil
	})
	cm := &fakeCommunities{}
	cm.set("cmv-id")
	rec := newRecorder()
	rec.panicOn = "bad"

	cancel, errCh := start(t, New(src, rec, cm, testConfig()))

	require.Equal(t, "good", receive(t, rec.seen))
	stop(t, cancel, errCh)
}

func TestBot_DropsCommentAlreadyInFlight(t *testing.T) {
	rec := newRecorder()
	rec.block = make(chan struct{})

	delivered := make(chan struct{})
	src := newFakeSource(func(_ int, ctx context.Context, h discuit.CommentHandler) error {
		h(ctx, "changemyview", comment("c1", "cmv-id"))
		h(ctx, "changemyview", comment("c1", "cmv-id"))
		close(delivered)
		return nil
	})
	cm := &fakeCommunities{}
	cm.set("cmv-id")

	cancel, errCh := start(t, New(src, rec, cm, testConfig()))

	receive(t, delivered)
	close(rec.block)
	require.Equal(t, "c1", receive(t, rec.seen))

	stop(t, cancel, errCh)
	require.Equal(t, int32(1), rec.calls.Load())
}

func TestBot_StartWaitsForInFlight(t *testing.T) {
	rec := newRecorder()
	rec.block = make(chan struct{})

	src := newFakeSource(func(_ int, ctx context.Context, h discuit.CommentHandler) error {
		h(ctx, "changemyview", comment("c1", "cmv-id"))
		return nil
	})
	cm := &fakeCommunities{}
	cm.set("cmv-id")

	cancel, errCh := start(t, New(src, rec, cm, testConfig()))
	receive(t, src.subscribed)
	require.Eventually(t, func() bool { return rec.calls.Load() == 1 }, waitFor, time.Millisecond)

	cancel()
	select {
	case <-errCh:
		t.Fatal("Start вернулся до завершения обработки")
	case <-time.After(30 * time.Millisecond):
	}

	close(rec.block)
	require.Equal(t, "c1", receive(t, rec.seen))
	require.NoError(t, receive(t, errCh))
}

func TestBot_ReloadKeepsInFlightRunning(t *testing.T) {
	rec := newRecorder()
	rec.block = make(chan struct{})

	var handlerCtx atomic.Pointer[context.Context]
	src := newFakeSource(func(n int, ctx context.Context, h discuit.CommentHandler) error {
		if n == 1 {
			h(ctx, "changemyview", comment("c1", "cmv-id"))
		}
		return nil
	})
	cm := &fakeCommunities{}
	cm.set("cmv-id")

	spy := &ctxRecorder{recorder: rec, ctx: &handlerCtx}
	b := New(src, spy, cm, testConfig())
	cancel, errCh := start(t, b)

	receive(t, src.subscribed)
	require.Eventually(t, func() bool { return handlerCtx.Load() != nil }, waitFor, time.Millisecond)

	b.Reload()
	receive(t, src.subscribed)
	require.NoError(t, (*handlerCtx.Load()).Err(), "reload не отменяет начатую обработку")

	close(rec.block)
	require.Equal(t, "c1", receive(t, rec.seen))
	stop(t, cancel, errCh)
}

type ctxRecorder struct {
	*recorder
	ctx *atomic.Pointer[context.Context]
}

func (p *ctxRecorder) HandleComment(ctx context.Context, community string, c *discuit.Comment) {
	p.ctx.Store(&ctx)
	p.recorder.HandleComment(ctx, community, c)
}
