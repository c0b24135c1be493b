package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"FlowieFM/logger"
)

// 设置写入的防抖间隔：连续的偏好变更只落一次存储
const settingsSaveDebounce = 500 * time.Millisecond

// State 是播放队列引擎的完整状态快照。
//
// 不变式：CurrentTrackID 非零时等于 Queue[Position]（唯一的例外是
// SourceIDs 被清空或当前曲目被移出可见列表，此时已选中的曲目继续
// 播放，下一次导航操作会重新对齐）。Queue 始终是 SourceIDs 的一个
// 排列，SourceIDs 为空时 Queue 也为空。
type State struct {
	SourceIDs      []int64 // 当前可见列表（歌单/筛选/排序结果）的曲目ID
	Queue          []int64 // 遍历顺序，可能是 SourceIDs 的洗牌排列
	Position       int     // Queue 中的当前下标
	CurrentTrackID int64   // 0 表示没有选中曲目
	PlaylistID     int64   // 播放来源歌单ID，0 表示非歌单来源
	IsPlaying      bool
	Shuffle        bool
	Repeat         bool
	Volume         float64
	PlaybackRate   float64
	RestartToken   uint64 // 每次“从头播放”递增，UI 据此重置播放进度
}

// Engine 是播放队列引擎：持有排序/随机/循环状态、当前曲目位置，
// 并在底层曲目列表变化时重建队列而不打断正在播放的曲目。
//
// 所有变更都经由互斥锁串行化，保证交错顺序确定；状态只通过
// Subscribe 或 Snapshot 暴露，不存在环境全局量。所有操作都是
// 状态上的全函数：空列表、缺失ID一律退化为无操作，不返回错误。
type Engine struct {
	mu        sync.Mutex
	state     State
	rng       *rand.Rand
	store     SettingsStore // 可为 nil（不持久化偏好）
	saveTimer *time.Timer

	subs    map[int]func(State)
	nextSub int
}

// NewEngine 创建引擎。store 非 nil 时启动即读取持久化偏好，
// 读取失败只记录日志并使用默认值。
func NewEngine(store SettingsStore) *Engine {
	e := &Engine{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		store: store,
		subs:  make(map[int]func(State)),
	}

	settings := DefaultSettings()
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if loaded, err := store.Load(ctx); err != nil {
			logger.Warn("读取播放偏好失败，使用默认值", logger.ErrorField(err))
		} else {
			settings = loaded
		}
	}

	e.state.Shuffle = settings.Shuffle
	e.state.Repeat = settings.Repeat
	e.state.Volume = settings.Volume
	e.state.PlaybackRate = settings.PlaybackRate
	return e
}

// Snapshot 返回当前状态的深拷贝
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Subscribe 注册状态观察者，返回取消函数。
// 每次状态变更后观察者会在变更调用方的 goroutine 内同步收到快照。
func (e *Engine) Subscribe(fn func(State)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// StartPlayback 用给定列表建立新队列并开始播放。
// startID 为 0 或不在列表中时从队首开始；playlistID 标记播放来源
// （0 表示非歌单来源）。空列表是无操作。
func (e *Engine) StartPlayback(ids []int64, startID int64, playlistID int64) {
	if len(ids) == 0 {
		return
	}

	e.mu.Lock()
	anchor := startID
	if indexOf(ids, anchor) < 0 {
		anchor = ids[0]
	}
	queue, position := BuildQueue(ids, e.state.Shuffle, anchor, e.rng)
	e.state.SourceIDs = append([]int64(nil), ids...)
	e.state.Queue = queue
	e.state.Position = position
	e.state.CurrentTrackID = queue[position]
	e.state.PlaylistID = playlistID
	e.state.IsPlaying = true
	e.unlockAndNotify()
}

// Play 恢复播放。尚未选中曲目时，以最近一次的 SourceIDs 为起点
// 从队首开始（相当于隐式的 StartPlayback）。
func (e *Engine) Play() {
	e.mu.Lock()
	if e.state.CurrentTrackID != 0 {
		e.state.IsPlaying = true
		e.unlockAndNotify()
		return
	}

	if len(e.state.SourceIDs) == 0 {
		e.mu.Unlock()
		return
	}

	queue, position := BuildQueue(e.state.SourceIDs, e.state.Shuffle, e.state.SourceIDs[0], e.rng)
	e.state.Queue = queue
	e.state.Position = position
	e.state.CurrentTrackID = queue[position]
	e.state.IsPlaying = true
	e.unlockAndNotify()
}

// Pause 暂停播放，不触碰队列与位置
func (e *Engine) Pause() {
	e.mu.Lock()
	e.state.IsPlaying = false
	e.unlockAndNotify()
}

// Next 前进到下一首（到尾部后回绕到队首）。
// 选择相邻曲目意味着要播放它，因此总是进入播放态。
func (e *Engine) Next() {
	e.mu.Lock()
	if len(e.state.Queue) == 0 {
		e.mu.Unlock()
		return
	}
	e.state.Position = (e.state.Position + 1) % len(e.state.Queue)
	e.state.CurrentTrackID = e.state.Queue[e.state.Position]
	e.state.IsPlaying = true
	e.unlockAndNotify()
}

// Previous 退回到上一首（从队首回绕到尾部）
func (e *Engine) Previous() {
	e.mu.Lock()
	if len(e.state.Queue) == 0 {
		e.mu.Unlock()
		return
	}
	e.state.Position = (e.state.Position - 1 + len(e.state.Queue)) % len(e.state.Queue)
	e.state.CurrentTrackID = e.state.Queue[e.state.Position]
	e.state.IsPlaying = true
	e.unlockAndNotify()
}

// RestartCurrent 让当前曲目从零秒重新播放，不改变队列位置
func (e *Engine) RestartCurrent() {
	e.mu.Lock()
	if e.state.CurrentTrackID == 0 {
		e.mu.Unlock()
		return
	}
	e.state.RestartToken++
	e.state.IsPlaying = true
	e.unlockAndNotify()
}

// OnTrackEnd 处理曲目自然播完：循环开启时原地重播，否则前进
func (e *Engine) OnTrackEnd() {
	e.mu.Lock()
	repeat := e.state.Repeat && e.state.CurrentTrackID != 0
	e.mu.Unlock()

	if repeat {
		e.RestartCurrent()
		return
	}
	e.Next()
}

// ToggleShuffle 切换随机模式并立即按当前 SourceIDs 重建队列，
// 当前曲目保持为锚点（随机模式下固定在队首）。
func (e *Engine) ToggleShuffle() {
	e.mu.Lock()
	e.state.Shuffle = !e.state.Shuffle
	if len(e.state.SourceIDs) > 0 {
		queue, position := BuildQueue(e.state.SourceIDs, e.state.Shuffle, e.state.CurrentTrackID, e.rng)
		e.state.Queue = queue
		e.state.Position = position
	}
	e.scheduleSaveLocked()
	e.unlockAndNotify()
}

// ToggleRepeat 切换单曲循环，不触碰队列
func (e *Engine) ToggleRepeat() {
	e.mu.Lock()
	e.state.Repeat = !e.state.Repeat
	e.scheduleSaveLocked()
	e.unlockAndNotify()
}

// SetVolume 设置音量（0~1），越界值收敛到边界
func (e *Engine) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	e.mu.Lock()
	e.state.Volume = volume
	e.scheduleSaveLocked()
	e.unlockAndNotify()
}

// SetPlaybackRate 设置播放速率，非正值退化为 1.0
func (e *Engine) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		rate = 1.0
	}

	e.mu.Lock()
	e.state.PlaybackRate = rate
	e.scheduleSaveLocked()
	e.unlockAndNotify()
}

// SetSourceIDs 在可见列表变化（筛选、排序、切换歌单）时调用。
// 列表与上一次相同则完全不动，避免后台刷新打散正在播放的随机队列；
// 列表为空时清空队列但保留 CurrentTrackID，已选中的曲目继续播放。
// 播放停止时调用则只是采纳新列表作为未来的起点，不进入播放态。
func (e *Engine) SetSourceIDs(ids []int64) {
	e.mu.Lock()
	if idsEqual(e.state.SourceIDs, ids) {
		e.mu.Unlock()
		return
	}

	e.state.SourceIDs = append([]int64(nil), ids...)
	if len(ids) == 0 {
		e.state.Queue = nil
		e.state.Position = 0
		// CurrentTrackID 保持不变：被筛选暂时隐藏的曲目继续播放
		e.unlockAndNotify()
		return
	}

	queue, position := BuildQueue(ids, e.state.Shuffle, e.state.CurrentTrackID, e.rng)
	e.state.Queue = queue
	e.state.Position = position
	e.unlockAndNotify()
}

// unlockAndNotify 在持锁状态下取快照，解锁后同步通知全部观察者
func (e *Engine) unlockAndNotify() {
	snapshot := e.state.clone()
	subs := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// scheduleSaveLocked 防抖调度一次偏好写入，调用方必须已持锁
func (e *Engine) scheduleSaveLocked() {
	if e.store == nil {
		return
	}
	if e.saveTimer != nil {
		e.saveTimer.Stop()
	}
	e.saveTimer = time.AfterFunc(settingsSaveDebounce, e.persistSettings)
}

// persistSettings 尽力而为地写入偏好，失败只记日志
func (e *Engine) persistSettings() {
	e.mu.Lock()
	settings := Settings{
		Volume:       e.state.Volume,
		PlaybackRate: e.state.PlaybackRate,
		Shuffle:      e.state.Shuffle,
		Repeat:       e.state.Repeat,
	}
	store := e.store
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Save(ctx, settings); err != nil {
		logger.Warn("写入播放偏好失败", logger.ErrorField(err))
	}
}

func (s State) clone() State {
	cloned := s
	cloned.SourceIDs = append([]int64(nil), s.SourceIDs...)
	cloned.Queue = append([]int64(nil), s.Queue...)
	return cloned
}
