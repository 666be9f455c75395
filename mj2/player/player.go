package player

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mrjoshuak/go-j2kbox/codec"
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/mj2/sampletable"
)

// Mode is the playback direction/step mode a caller selects with SetMode.
// The two step variants only matter to PingPong loop handling, which flips
// Forward<->Reverse and StepForward<->StepBackward as distinct pairs.
type Mode int

const (
	ModeForward Mode = iota
	ModeReverse
	ModeStepForward
	ModeStepBackward
)

func (m Mode) direction() int {
	if m == ModeReverse || m == ModeStepBackward {
		return -1
	}
	return 1
}

func (m Mode) flipped() Mode {
	switch m {
	case ModeForward:
		return ModeReverse
	case ModeReverse:
		return ModeForward
	case ModeStepForward:
		return ModeStepBackward
	case ModeStepBackward:
		return ModeStepForward
	default:
		return m
	}
}

// LoopMode governs what NextFrame does at either end of the track.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopLoop
	LoopPingPong
)

// PlaybackState is the play/pause/stop state a caller drives explicitly;
// the player itself never changes it except to Stopped when LoopNone runs
// off the end of the track.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

const (
	minSpeed            = 0.1
	maxSpeed            = 10.0
	defaultPrefetchCount = 3
)

// Stats tracks playback counters, named to match the engine's statistics
// surface: frames decoded/dropped, a running average decode time, and the
// cache's hit rate. The cache's memory footprint is reported by
// Player.MemoryUsage, not by Stats.
type Stats struct {
	FramesDecoded   int
	FramesDropped   int
	CacheHits       int
	CacheMisses     int
	totalDecodeTime time.Duration
}

// AverageDecodeTimeMs is the running mean decode latency over every frame
// actually decoded (cache hits don't count).
func (s Stats) AverageDecodeTimeMs() float64 {
	if s.FramesDecoded == 0 {
		return 0
	}
	return float64(s.totalDecodeTime.Nanoseconds()) / 1e6 / float64(s.FramesDecoded)
}

// CacheHitRate is hits/(hits+misses), or 0 before any lookup has happened.
func (s Stats) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// Player is a cooperative frame cursor: every method call does exactly the
// work it names and returns — nothing runs on a timer. Prefetch happens
// synchronously inside NextFrame/SeekTo, so cache eviction stays atomic
// with respect to the insertion that triggered it.
type Player struct {
	data  []byte
	table *sampletable.Reader
	codec codec.Codec
	cache *decodeCache

	currentIndex  int
	mode          Mode
	loopMode      LoopMode
	state         PlaybackState
	speed         float64
	predictive    bool
	prefetchCount int

	stats Stats
	log   *zap.Logger
}

// SetLogger installs a structured logger for cache and seek diagnostics.
// A nil logger restores the no-op default.
func (p *Player) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	p.log = l
}

// New constructs a Player over a parsed sample table and the raw file bytes
// frame offsets are relative to (the whole box-framed file, since stco/co64
// offsets are absolute from the start of the file, not the mdat).
// cacheEntries and cacheBytes bound the decode cache; cacheBytes <= 0
// disables the memory-budget eviction and leaves only the entry-count bound.
func New(data []byte, table *sampletable.Reader, c codec.Codec, cacheEntries, cacheBytes int) (*Player, error) {
	if table.SampleCount() == 0 {
		return nil, errs.New(errs.KindNoVideoTracks, "player.New", "sample table has no frames")
	}
	cache, err := newDecodeCache(cacheEntries, cacheBytes)
	if err != nil {
		return nil, err
	}
	return &Player{
		data: data, table: table, codec: c, cache: cache,
		speed: 1.0, prefetchCount: defaultPrefetchCount,
		log: zap.NewNop(),
	}, nil
}

// FrameCount returns the total number of frames in the track.
func (p *Player) FrameCount() int { return p.table.SampleCount() }

// CurrentIndex returns the cursor's current 0-based frame index.
func (p *Player) CurrentIndex() int { return p.currentIndex }

// State returns the current play/pause/stop state.
func (p *Player) State() PlaybackState { return p.state }

// Play marks the player as playing, without itself advancing any frames —
// actually advancing is still the caller's job via NextFrame.
func (p *Player) Play() { p.state = StatePlaying }

// Pause marks the player as paused.
func (p *Player) Pause() { p.state = StatePaused }

// Stop marks the player as stopped.
func (p *Player) Stop() { p.state = StateStopped }

// SetMode changes the playback direction/step mode.
func (p *Player) SetMode(m Mode) { p.mode = m }

// Mode returns the current playback mode.
func (p *Player) Mode() Mode { return p.mode }

// SetLoopMode changes the end-of-track behavior.
func (p *Player) SetLoopMode(m LoopMode) { p.loopMode = m }

// SetSpeed sets the playback speed multiplier, clamped to [0.1, 10.0]. The
// player itself has no timer to scale — this is metadata a caller driving
// its own clock reads back via Speed().
func (p *Player) SetSpeed(s float64) {
	if s < minSpeed {
		s = minSpeed
	}
	if s > maxSpeed {
		s = maxSpeed
	}
	p.speed = s
}

// Speed returns the current playback speed multiplier.
func (p *Player) Speed() float64 { return p.speed }

// SetPredictivePrefetch toggles prefetching an additional prefetchCount/2
// frames in the direction opposite playback, to smooth manual seeks.
func (p *Player) SetPredictivePrefetch(v bool) { p.predictive = v }

// Stats returns a snapshot of playback counters so far.
func (p *Player) Stats() Stats { return p.stats }

// MemoryUsage returns the decode cache's current estimated footprint.
func (p *Player) MemoryUsage() int { return p.cache.memoryUsage() }

func (p *Player) decodeFrame(ctx context.Context, k int) (*decodedFrame, error) {
	if cached, ok := p.cache.get(k); ok {
		p.stats.CacheHits++
		p.log.Debug("frame cache hit", zap.Int("index", k))
		return cached, nil
	}
	p.stats.CacheMisses++
	info, ts, err := p.table.Lookup(k)
	if err != nil {
		return nil, err
	}
	if uint64(len(p.data)) < info.Offset+uint64(info.Size) {
		p.stats.FramesDropped++
		return nil, errs.New(errs.KindTruncated, "player.decodeFrame", "frame extends past end of file data")
	}
	codestream := p.data[info.Offset : info.Offset+uint64(info.Size)]
	start := time.Now()
	result, err := p.codec.Decode(ctx, codestream)
	if err != nil {
		p.stats.FramesDropped++
		return nil, errs.Wrap(errs.KindDecodeFailed, "player.decodeFrame", "frame decode failed", err)
	}
	p.stats.totalDecodeTime += time.Since(start)
	p.stats.FramesDecoded++
	frame := &decodedFrame{result: result, timestamp: ts}
	p.cache.add(k, frame)
	return frame, nil
}

// FrameAt decodes (or returns from cache) the frame at absolute index i
// without moving the playback cursor.
func (p *Player) FrameAt(ctx context.Context, i int) (*codec.DecodeResult, uint64, error) {
	if i < 0 || i >= p.table.SampleCount() {
		return nil, 0, errs.New(errs.KindSeekFailed, "player.FrameAt", "frame index out of range")
	}
	f, err := p.decodeFrame(ctx, i)
	if err != nil {
		return nil, 0, err
	}
	return f.result, f.timestamp, nil
}

// SeekTo rejects i outside [0, N) with KindSeekFailed; otherwise it moves
// the cursor there and prefetches around the new position.
func (p *Player) SeekTo(ctx context.Context, i int) (*codec.DecodeResult, uint64, error) {
	if i < 0 || i >= p.table.SampleCount() {
		return nil, 0, errs.New(errs.KindSeekFailed, "player.SeekTo", "seek target out of range")
	}
	p.currentIndex = i
	result, ts, err := p.FrameAt(ctx, i)
	if err != nil {
		return nil, 0, err
	}
	p.log.Debug("seek", zap.Int("index", i), zap.Uint64("timestamp", ts))
	p.prefetch(ctx)
	return result, ts, nil
}

// SeekToTimestamp moves the cursor to the frame whose timestamp is closest
// to t, breaking ties toward the earliest index. A linear scan is
// acceptable here: MJ2 tracks are short enough that this never dominates.
func (p *Player) SeekToTimestamp(ctx context.Context, t uint64) (*codec.DecodeResult, uint64, error) {
	best := -1
	var bestDiff uint64
	for i := 0; i < p.table.SampleCount(); i++ {
		_, ts, err := p.table.Lookup(i)
		if err != nil {
			return nil, 0, err
		}
		var diff uint64
		if ts < t {
			diff = t - ts
		} else {
			diff = ts - t
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return p.SeekTo(ctx, best)
}

// NextFrame advances the cursor by the current mode's direction. At either
// end of the track: LoopNone stops playback and returns (nil, 0, nil) —
// "no frame", not an error; LoopLoop wraps to the other end; LoopPingPong
// flips the mode (Forward<->Reverse, StepForward<->StepBackward) and steps
// from the new direction instead.
func (p *Player) NextFrame(ctx context.Context) (*codec.DecodeResult, uint64, error) {
	n := p.table.SampleCount()
	dir := p.mode.direction()
	next := p.currentIndex + dir
	if next < 0 || next >= n {
		switch p.loopMode {
		case LoopNone:
			p.state = StateStopped
			return nil, 0, nil
		case LoopLoop:
			if dir > 0 {
				next = 0
			} else {
				next = n - 1
			}
		case LoopPingPong:
			p.mode = p.mode.flipped()
			dir = p.mode.direction()
			next = p.currentIndex + dir
			if next < 0 || next >= n {
				next = p.currentIndex // single-frame track: nothing to flip into
			}
		}
	}
	p.currentIndex = next
	result, ts, err := p.FrameAt(ctx, p.currentIndex)
	if err != nil {
		return nil, 0, err
	}
	p.prefetch(ctx)
	return result, ts, nil
}

// prefetch warms the cache around the current index: always the current
// frame (already decoded by the caller before this runs), prefetchCount
// frames ahead in the playback direction, and — when predictive prefetch is
// on — an additional prefetchCount/2 frames behind, to smooth manual seeks.
// Decode failures here are swallowed: a prefetch miss just means the next
// real call pays the decode cost itself.
func (p *Player) prefetch(ctx context.Context) {
	n := p.table.SampleCount()
	dir := p.mode.direction()
	for step := 1; step <= p.prefetchCount; step++ {
		p.prefetchAt(ctx, p.currentIndex+step*dir, n)
	}
	if p.predictive {
		for step := 1; step <= p.prefetchCount/2; step++ {
			p.prefetchAt(ctx, p.currentIndex-step*dir, n)
		}
	}
}

func (p *Player) prefetchAt(ctx context.Context, idx, n int) {
	if idx < 0 || idx >= n {
		return
	}
	if _, ok := p.cache.get(idx); ok {
		return
	}
	_, _ = p.decodeFrame(ctx, idx)
}
