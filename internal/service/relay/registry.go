// Package relay 实现实时网关：连接注册表、事件代理与分发
// registry.go
// 核心职责：维护在线连接，同一用户允许多端，全局连接数有硬上限
package relay

import (
	"sync"

	"whispr_chat_server/pkg/errorx"
)

// Registry 连接注册表
// Key 是用户 UUID，一个用户名下可以挂多条连接（多端登录）
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]map[string]*UserConn
	total   int
	maxSize int
}

// NewRegistry 创建注册表，maxSize <= 0 时不限容量
func NewRegistry(maxSize int) *Registry {
	return &Registry{
		conns:   make(map[string]map[string]*UserConn),
		maxSize: maxSize,
	}
}

// Register 注册连接
// 达到全局上限时返回 CodeCapacity，网关据此以 1008 关闭连接
func (r *Registry) Register(conn *UserConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 && r.total >= r.maxSize {
		return errorx.Newf(errorx.CodeCapacity, "连接数已达上限 %d", r.maxSize)
	}

	set, ok := r.conns[conn.UserId]
	if !ok {
		set = make(map[string]*UserConn)
		r.conns[conn.UserId] = set
	}
	// 同一连接 ID 重复注册视为替换，不重复计数
	if _, exists := set[conn.ConnId]; !exists {
		r.total++
	}
	set[conn.ConnId] = conn
	return nil
}

// Unregister 注销连接
// 按 (user, connId) 精确移除，避免误删同一用户的其他端
func (r *Registry) Unregister(conn *UserConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[conn.UserId]
	if !ok {
		return
	}
	if _, exists := set[conn.ConnId]; !exists {
		return
	}
	delete(set, conn.ConnId)
	r.total--
	if len(set) == 0 {
		delete(r.conns, conn.UserId)
	}
}

// ConnsOf 返回用户名下的全部连接
func (r *Registry) ConnsOf(userId string) []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userId]
	conns := make([]*UserConn, 0, len(set))
	for _, c := range set {
		conns = append(conns, c)
	}
	return conns
}

// Total 当前连接总数
func (r *Registry) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// SendToUsers 把事件推给给定用户的所有在线连接
// 推送通道满时丢弃该连接的这条事件，慢客户端不拖累别人
func (r *Registry) SendToUsers(userIds []string, data []byte) {
	if data == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range userIds {
		for _, conn := range r.conns[id] {
			select {
			case conn.Send <- data:
			default:
			}
		}
	}
}
