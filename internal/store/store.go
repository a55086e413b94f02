package store

import (
	"sync"

	"wow-insight/internal/model"
)

// ── 快照仓库 ──
//
// 设计说明：规格排除任何持久化层——分析结果只存在于内存。
// 仓库持有"当前快照"这一个不可变对象：载入流水线构造新快照后
// 整体替换，读取方拿到的引用在其生命周期内永不变化。
// 没有增量更新，没有跨运行状态。

// SnapshotStore 当前快照的并发安全持有者
type SnapshotStore struct {
	mu   sync.RWMutex
	snap *model.Snapshot
}

// NewSnapshotStore 创建空仓库（尚无快照，等待首次载入）
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Current 返回当前快照；尚未载入时返回 nil
func (s *SnapshotStore) Current() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Swap 以新快照整体替换当前快照
func (s *SnapshotStore) Swap(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}
