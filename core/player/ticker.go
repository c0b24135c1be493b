package player

import (
	"sync"
	"time"
)

// TickFunc 上报一次“该曲目仍在播放”的心跳。
// 调用是 fire-and-forget 的：实现负责自己的超时与错误处理，
// 心跳失败绝不能打断播放。
type TickFunc func(trackID, playlistID int64)

// ListenTicker 订阅引擎状态，在曲目可听地播放时以固定间隔
// （约 1 Hz）发出收听心跳。
//
// 计时器的生命周期严格跟随播放状态：暂停或没有当前曲目时必须
// 停表，恢复时必须重新起表。暂停后泄漏一个仍在走的计时器是这里
// 首要防范的缺陷。每次心跳都在独立 goroutine 中发出，慢心跳不会
// 阻塞下一次触发，也不会阻塞引擎。
type ListenTicker struct {
	engine   *Engine
	tick     TickFunc
	interval time.Duration

	mu          sync.Mutex
	cancel      chan struct{} // 非 nil 表示计时循环正在运行
	trackID     int64
	playlistID  int64
	unsubscribe func()
}

// NewListenTicker 创建心跳器，interval 非正时取 1 秒
func NewListenTicker(engine *Engine, tick TickFunc, interval time.Duration) *ListenTicker {
	if interval <= 0 {
		interval = time.Second
	}
	return &ListenTicker{
		engine:   engine,
		tick:     tick,
		interval: interval,
	}
}

// Start 开始跟随引擎状态，并立即对当前快照求值
func (t *ListenTicker) Start() {
	t.mu.Lock()
	if t.unsubscribe != nil {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	unsubscribe := t.engine.Subscribe(t.onState)
	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()

	t.onState(t.engine.Snapshot())
}

// Stop 取消订阅并停止计时循环
func (t *ListenTicker) Stop() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.stopLoopLocked()
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// onState 根据最新快照决定计时循环的去留
func (t *ListenTicker) onState(s State) {
	shouldRun := s.CurrentTrackID != 0 && s.IsPlaying

	t.mu.Lock()
	defer t.mu.Unlock()

	if !shouldRun {
		t.stopLoopLocked()
		return
	}

	running := t.cancel != nil
	if running && t.trackID == s.CurrentTrackID && t.playlistID == s.PlaylistID {
		return // 同一曲目继续播放，计时器保持原样
	}

	// 曲目或来源变了，重新起表
	t.stopLoopLocked()
	cancel := make(chan struct{})
	t.cancel = cancel
	t.trackID = s.CurrentTrackID
	t.playlistID = s.PlaylistID
	go t.runLoop(cancel, s.CurrentTrackID, s.PlaylistID)
}

// stopLoopLocked 停止当前计时循环，调用方必须已持锁
func (t *ListenTicker) stopLoopLocked() {
	if t.cancel != nil {
		close(t.cancel)
		t.cancel = nil
	}
	t.trackID = 0
	t.playlistID = 0
}

// runLoop 是单个曲目的计时循环；每个间隔把心跳抛到新 goroutine，
// 保证慢心跳不拖慢节拍
func (t *ListenTicker) runLoop(cancel chan struct{}, trackID, playlistID int64) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			go t.tick(trackID, playlistID)
		}
	}
}
