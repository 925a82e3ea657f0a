// Package presence 维护在线状态和输入状态
// 全部状态在内存中：在线与否由连接计数决定，输入状态是带 TTL 的租约
// 按用户、按聊天分片加锁，互不相关的聊天和用户不会争抢同一把锁
// 过期租约在读取时惰性清理，收到 ping 时顺手做一次全量清扫
package presence

import (
	"sync"
	"time"

	"whispr_chat_server/pkg/constants"
)

// userEntry 单个用户的在线状态分片，持有自己的锁
type userEntry struct {
	mu        sync.Mutex
	conns     map[string]struct{}
	status    string
	invisible bool
}

// chatTyping 单个聊天的输入租约分片，持有自己的锁
type chatTyping struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

// Tracker 在线与输入状态跟踪器
// 外层 RWMutex 只保护分片表本身，状态读写走分片内的锁
// now 可注入，测试时用假时钟验证 TTL 边界
type Tracker struct {
	now func() time.Time

	umu   sync.RWMutex
	users map[string]*userEntry

	tmu    sync.RWMutex
	typing map[string]*chatTyping
}

// NewTracker 创建跟踪器
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock 创建带自定义时钟的跟踪器
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		now:    now,
		users:  make(map[string]*userEntry),
		typing: make(map[string]*chatTyping),
	}
}

// userOf 取（必要时创建）用户分片
func (t *Tracker) userOf(userUuid string) *userEntry {
	t.umu.RLock()
	u, ok := t.users[userUuid]
	t.umu.RUnlock()
	if ok {
		return u
	}

	t.umu.Lock()
	defer t.umu.Unlock()
	if u, ok = t.users[userUuid]; ok {
		return u
	}
	u = &userEntry{conns: make(map[string]struct{})}
	t.users[userUuid] = u
	return u
}

// peekUser 只读取用户分片，不创建
func (t *Tracker) peekUser(userUuid string) *userEntry {
	t.umu.RLock()
	defer t.umu.RUnlock()
	return t.users[userUuid]
}

// chatOf 取（必要时创建）聊天的输入租约分片
func (t *Tracker) chatOf(chatUuid string) *chatTyping {
	t.tmu.RLock()
	c, ok := t.typing[chatUuid]
	t.tmu.RUnlock()
	if ok {
		return c
	}

	t.tmu.Lock()
	defer t.tmu.Unlock()
	if c, ok = t.typing[chatUuid]; ok {
		return c
	}
	c = &chatTyping{leases: make(map[string]time.Time)}
	t.typing[chatUuid] = c
	return c
}

// AddConnection 记录一条连接
// 返回 true 表示用户从离线变为在线（首条连接）
func (t *Tracker) AddConnection(userUuid, connId string) bool {
	u := t.userOf(userUuid)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.conns[connId] = struct{}{}
	return len(u.conns) == 1
}

// RemoveConnection 移除一条连接
// 返回 true 表示用户最后一条连接断开（转为离线），此时清掉该用户的全部输入租约
func (t *Tracker) RemoveConnection(userUuid, connId string) bool {
	u := t.peekUser(userUuid)
	if u == nil {
		return false
	}

	u.mu.Lock()
	delete(u.conns, connId)
	remaining := len(u.conns)
	if remaining == 0 {
		u.status = ""
		u.invisible = false
	}
	u.mu.Unlock()
	if remaining > 0 {
		return false
	}

	// 离线即停止输入，逐分片清理
	t.tmu.RLock()
	shards := make([]*chatTyping, 0, len(t.typing))
	for _, c := range t.typing {
		shards = append(shards, c)
	}
	t.tmu.RUnlock()
	for _, c := range shards {
		c.mu.Lock()
		delete(c.leases, userUuid)
		c.mu.Unlock()
	}
	return true
}

// IsOnline 用户是否在线（存在至少一条连接且未隐身）
func (t *Tracker) IsOnline(userUuid string) bool {
	u := t.peekUser(userUuid)
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.conns) > 0 && !u.invisible
}

// ConnectionCount 用户当前连接数
func (t *Tracker) ConnectionCount(userUuid string) int {
	u := t.peekUser(userUuid)
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.conns)
}

// OnlineUsers 过滤出给定用户中在线（且未隐身）的那些
func (t *Tracker) OnlineUsers(userUuids []string) []string {
	online := make([]string, 0, len(userUuids))
	for _, id := range userUuids {
		if t.IsOnline(id) {
			online = append(online, id)
		}
	}
	return online
}

// StartTyping 开始/刷新输入租约
// 每次键入事件把到期时间推到 now + TTL
func (t *Tracker) StartTyping(chatUuid, userUuid string) {
	c := t.chatOf(chatUuid)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leases[userUuid] = t.now().Add(constants.TYPING_TTL)
}

// StopTyping 显式停止输入
func (t *Tracker) StopTyping(chatUuid, userUuid string) {
	t.tmu.RLock()
	c := t.typing[chatUuid]
	t.tmu.RUnlock()
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.leases, userUuid)
}

// TypingUsers 返回聊天内仍在输入的用户
// 读取时惰性清理过期租约
func (t *Tracker) TypingUsers(chatUuid string) []string {
	t.tmu.RLock()
	c := t.typing[chatUuid]
	t.tmu.RUnlock()
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := t.now()
	active := make([]string, 0, len(c.leases))
	for id, expiry := range c.leases {
		if expiry.After(now) {
			active = append(active, id)
		} else {
			delete(c.leases, id)
		}
	}
	return active
}

// SweepExpired 清理所有过期的输入租约，返回被清理的 (chat, user) 对
// 网关收到 ping 时调用，顺手把过期状态广播出去
func (t *Tracker) SweepExpired() map[string][]string {
	t.tmu.RLock()
	shards := make(map[string]*chatTyping, len(t.typing))
	for chatUuid, c := range t.typing {
		shards[chatUuid] = c
	}
	t.tmu.RUnlock()

	expired := make(map[string][]string)
	now := t.now()
	for chatUuid, c := range shards {
		c.mu.Lock()
		for id, expiry := range c.leases {
			if !expiry.After(now) {
				expired[chatUuid] = append(expired[chatUuid], id)
				delete(c.leases, id)
			}
		}
		c.mu.Unlock()
	}
	return expired
}

// SetStatus 设置用户状态文案
func (t *Tracker) SetStatus(userUuid, statusText string) {
	u := t.userOf(userUuid)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = statusText
}

// Status 读取用户状态文案
func (t *Tracker) Status(userUuid string) string {
	u := t.peekUser(userUuid)
	if u == nil {
		return ""
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// SetInvisible 设置隐身：连接保持，但对外呈现为离线
func (t *Tracker) SetInvisible(userUuid string, invisible bool) {
	u := t.userOf(userUuid)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.invisible = invisible
}
