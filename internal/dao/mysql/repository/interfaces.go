// Package repository 定义数据访问层接口和聚合结构
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"time"

	"whispr_chat_server/internal/model"

	"gorm.io/gorm"
)

// ==================== Repository 接口定义 ====================

// UserProfileRepository 用户画像数据访问接口
type UserProfileRepository interface {
	// FindByUuid 根据 UUID 查找用户画像
	FindByUuid(uuid string) (*model.UserProfile, error)
	// FindByUuids 批量根据 UUID 查找用户画像
	FindByUuids(uuids []string) ([]model.UserProfile, error)
	// Upsert 按 uuid 创建或更新画像
	Upsert(profile *model.UserProfile) error
	// UpdateStatusText 更新状态文案
	UpdateStatusText(uuid string, statusText string) error
	// UpdateShowLastSeen 更新最后在线时间的可见性开关
	UpdateShowLastSeen(uuid string, show bool) error
	// UpdateLastSeen 记录最后在线时间
	UpdateLastSeen(uuid string, at time.Time) error
}

// ChatRepository 聊天数据访问接口
type ChatRepository interface {
	// FindByUuid 根据 UUID 查找聊天
	FindByUuid(uuid string) (*model.Chat, error)
	// FindByUuids 批量根据 UUID 查找聊天
	FindByUuids(uuids []string) ([]model.Chat, error)
	// FindByDirectKey 根据单聊唯一键查找
	FindByDirectKey(directKey string) (*model.Chat, error)
	// Create 创建聊天
	Create(chat *model.Chat) error
	// UpdateLastMessage 更新最新消息摘要和时间
	UpdateLastMessage(chatUuid string, summary string, at time.Time) error
}

// ParticipantRepository 聊天成员数据访问接口
type ParticipantRepository interface {
	// Find 查找指定聊天内的成员记录
	Find(chatUuid, userUuid string) (*model.Participant, error)
	// FindByChatUuid 查找聊天的全部成员
	FindByChatUuid(chatUuid string) ([]model.Participant, error)
	// FindChatUuidsByUser 查找用户加入的全部聊天 UUID
	FindChatUuidsByUser(userUuid string) ([]string, error)
	// Create 添加成员
	Create(p *model.Participant) error
	// CreateBatch 批量添加成员
	CreateBatch(ps []model.Participant) error
	// AdvanceLastRead 推进成员的已读水位，只前进不后退
	AdvanceLastRead(chatUuid, userUuid string, messageUuid int64) error
	// CountByChatUuid 统计聊天成员数
	CountByChatUuid(chatUuid string) (int64, error)
}

// MessageSearchFilter 消息搜索条件，零值字段不参与过滤
type MessageSearchFilter struct {
	Query      string
	SenderUuid string
	Type       string
	BeforeUuid int64
	Limit      int
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// FindByUuid 根据雪花 ID 查找消息
	FindByUuid(uuid int64) (*model.Message, error)
	// FindByUuids 批量根据雪花 ID 查找消息
	FindByUuids(uuids []int64) ([]model.Message, error)
	// FindPageByChat 按聊天倒序分页，beforeUuid 为 0 时从最新一条开始
	FindPageByChat(chatUuid string, beforeUuid int64, limit int) ([]model.Message, error)
	// Create 创建消息
	Create(m *model.Message) error
	// UpdateContent 更新消息内容并置编辑标记
	UpdateContent(uuid int64, content string, editedAt time.Time) error
	// MarkDeleted 软删除：置删除标记并覆写内容为占位文本
	MarkDeleted(uuid int64) error
	// HardDelete 物理删除消息
	HardDelete(uuid int64) error
	// IncrementForwardCount 根消息转发计数加 n
	IncrementForwardCount(uuid int64, n int) error
	// SearchInChats 在给定聊天内按条件搜索，排除软删除
	SearchInChats(chatUuids []string, filter MessageSearchFilter) ([]model.Message, error)
	// CountUnread 统计聊天内晚于 since 的他人消息数
	CountUnread(chatUuid, userUuid string, since time.Time) (int64, error)
	// CountAllUnread 无已读回执时统计聊天内全部他人消息数
	CountAllUnread(chatUuid, userUuid string) (int64, error)
}

// EmojiCount 表情聚合计数
type EmojiCount struct {
	MessageUuid int64  `gorm:"column:message_uuid"`
	Emoji       string `gorm:"column:emoji"`
	Count       int    `gorm:"column:cnt"`
}

// ReactionRepository 表情回应数据访问接口
type ReactionRepository interface {
	// Find 查找用户对消息的指定表情回应
	Find(messageUuid int64, userUuid, emoji string) (*model.Reaction, error)
	// Create 添加回应
	Create(r *model.Reaction) error
	// Delete 物理删除回应（取消）
	Delete(messageUuid int64, userUuid, emoji string) error
	// SummarizeByMessage 按表情聚合单条消息的回应数
	SummarizeByMessage(messageUuid int64) ([]EmojiCount, error)
	// SummarizeByMessages 批量聚合多条消息的回应数
	SummarizeByMessages(messageUuids []int64) ([]EmojiCount, error)
}

// ReadReceiptRepository 已读回执数据访问接口
type ReadReceiptRepository interface {
	// Find 查找用户在聊天内的已读回执
	Find(chatUuid, userUuid string) (*model.ReadReceipt, error)
	// Upsert 创建或推进已读时间（只前进不后退）
	Upsert(chatUuid, userUuid string, readAt time.Time) error
}

// VoiceNoteRepository 语音附加数据访问接口
type VoiceNoteRepository interface {
	// Create 创建语音附加记录
	Create(v *model.VoiceNote) error
	// FindByMessageUuid 查找单条消息的语音数据
	FindByMessageUuid(messageUuid int64) (*model.VoiceNote, error)
	// FindByMessageUuids 批量查找
	FindByMessageUuids(messageUuids []int64) ([]model.VoiceNote, error)
}

// TranslationRepository 译文缓存数据访问接口
type TranslationRepository interface {
	// Find 查找消息在目标语言下的缓存译文
	Find(messageUuid int64, lang string) (*model.Translation, error)
	// Create 写入译文缓存
	Create(t *model.Translation) error
}

// ForwardRepository 转发明细数据访问接口
type ForwardRepository interface {
	// Create 记录一次成功转发
	Create(f *model.ForwardRecord) error
	// FindByRoot 查找根消息的全部转发明细
	FindByRoot(rootUuid int64) ([]model.ForwardRecord, error)
}

// CallRepository 通话数据访问接口
type CallRepository interface {
	// FindByUuid 根据 UUID 查找通话
	FindByUuid(uuid string) (*model.Call, error)
	// FindActiveByChat 查找聊天内进行中的通话（initiated/ringing/answered）
	FindActiveByChat(chatUuid string) (*model.Call, error)
	// Create 创建通话
	Create(c *model.Call) error
	// UpdateStatus 推进通话状态，fromStatuses 非空时作为前置条件
	UpdateStatus(uuid string, status string, fromStatuses []string) error
	// End 结束通话，终态由调用方决定（ended / missed）
	End(uuid string, status string, at time.Time) error
	// AddParticipants 批量写入通话成员
	AddParticipants(ps []model.CallParticipant) error
	// FindParticipant 查找通话内的成员记录
	FindParticipant(callUuid, userUuid string) (*model.CallParticipant, error)
	// FindParticipantsByCall 查找通话的全部成员
	FindParticipantsByCall(callUuid string) ([]model.CallParticipant, error)
	// UpdateParticipantStatus 推进成员状态
	UpdateParticipantStatus(callUuid, userUuid, status string, at time.Time) error
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db          *gorm.DB
	UserProfile UserProfileRepository
	Chat        ChatRepository
	Participant ParticipantRepository
	Message     MessageRepository
	Reaction    ReactionRepository
	ReadReceipt ReadReceiptRepository
	VoiceNote   VoiceNoteRepository
	Translation TranslationRepository
	Forward     ForwardRepository
	Call        CallRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		UserProfile: NewUserProfileRepository(db),
		Chat:        NewChatRepository(db),
		Participant: NewParticipantRepository(db),
		Message:     NewMessageRepository(db),
		Reaction:    NewReactionRepository(db),
		ReadReceipt: NewReadReceiptRepository(db),
		VoiceNote:   NewVoiceNoteRepository(db),
		Translation: NewTranslationRepository(db),
		Forward:     NewForwardRepository(db),
		Call:        NewCallRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
