package message

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dao "whispr_chat_server/internal/dao/mysql"
	"whispr_chat_server/internal/dao/mysql/repository"
	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/model"
	"whispr_chat_server/pkg/constants"
	"whispr_chat_server/pkg/errorx"
)

// newTestService 用 sqlite 内存库搭一套消息服务
// cache 和 translator 留空，相关能力自动退化
func newTestService(t *testing.T) (*messageService, *repository.Repositories, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := dao.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
	repos := repository.NewRepositories(db)
	return NewMessageService(repos, nil, nil), repos, db
}

// seedChat 建一个聊天并填充成员，群聊时第一个成员是管理员
func seedChat(t *testing.T, repos *repository.Repositories, chatUuid string, isGroup, adminsOnly bool, members ...string) {
	t.Helper()
	if err := repos.Chat.Create(&model.Chat{
		Uuid:              chatUuid,
		IsGroup:           isGroup,
		OwnerId:           members[0],
		OnlyAdminsCanPost: adminsOnly,
	}); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	for i, u := range members {
		role := model.RoleMember
		if isGroup && i == 0 {
			role = model.RoleAdmin
		}
		if err := repos.Participant.Create(&model.Participant{
			ChatUuid: chatUuid, UserUuid: u, Role: role, JoinedAt: now,
		}); err != nil {
			t.Fatal(err)
		}
		if err := repos.UserProfile.Upsert(&model.UserProfile{Uuid: u, Nickname: u[:5]}); err != nil {
			t.Fatal(err)
		}
	}
}

func mustSend(t *testing.T, svc *messageService, user string, req request.SendMessageRequest) string {
	t.Helper()
	rsp, err := svc.SendMessage(user, req)
	if err != nil {
		t.Fatal(err)
	}
	return rsp.Id
}

func TestSendMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	rsp, err := svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Content != "hello" || rsp.SenderId != "Ualice000000" {
		t.Fatalf("rsp = %+v", rsp)
	}

	// 聊天摘要同步更新
	chat, err := repos.Chat.FindByUuid("Cchat0000001")
	if err != nil {
		t.Fatal(err)
	}
	if chat.LastMessage != "hello" {
		t.Fatalf("last message = %q, want hello", chat.LastMessage)
	}

	// 没有任何定时器时消息永久保留
	if rsp.DisappearsAt != "" {
		t.Fatalf("disappears_at = %q, want empty", rsp.DisappearsAt)
	}
}

func TestDisappearingTimer(t *testing.T) {
	svc, repos, db := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	// 消息级定时器
	rsp, err := svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "soon gone",
		DisappearingTTL: 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.DisappearsAt == "" {
		t.Fatal("want disappears_at set by message timer")
	}

	// 聊天级默认定时器兜底
	if err := db.Model(&model.Chat{}).Where("uuid = ?", "Cchat0000001").
		Update("disappearing_ttl", 3600).Error; err != nil {
		t.Fatal(err)
	}
	rsp, err = svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "chat default",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.DisappearsAt == "" {
		t.Fatal("want disappears_at set by chat default")
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	// 非成员
	_, err := svc.SendMessage("Ughost000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hi",
	})
	if !errorx.IsNotFound(err) {
		t.Fatalf("non member: err = %v, want not found", err)
	}

	// 空文本
	_, err = svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText,
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("empty text: err = %v, want invalid param", err)
	}

	// 多媒体缺资源链接
	_, err = svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeImage,
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("media without url: err = %v, want invalid param", err)
	}

	// 语音缺时长
	_, err = svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeVoiceNote, MediaUrl: "a.ogg",
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("voice without duration: err = %v, want invalid param", err)
	}
}

func TestSendMediaMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	rsp, err := svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeVideo,
		MediaUrl: "v.mp4", MediaType: "video/mp4", FileName: "v.mp4", FileSize: 2048,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.MediaUrl != "v.mp4" || rsp.MediaType != "video/mp4" || rsp.FileName != "v.mp4" || rsp.FileSize != 2048 {
		t.Fatalf("rsp = %+v, want full media descriptor", rsp)
	}

	chat, err := repos.Chat.FindByUuid("Cchat0000001")
	if err != nil {
		t.Fatal(err)
	}
	if chat.LastMessage != "[Video]" {
		t.Fatalf("last message = %q, want [Video]", chat.LastMessage)
	}
}

func TestSendMessageAdminsOnly(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cgroup000001", true, true, "Uadmin000000", "Ubob00000000")

	if _, err := svc.SendMessage("Uadmin000000", request.SendMessageRequest{
		ChatId: "Cgroup000001", Type: model.MessageTypeText, Content: "notice",
	}); err != nil {
		t.Fatalf("admin should be able to post: %v", err)
	}

	_, err := svc.SendMessage("Ubob00000000", request.SendMessageRequest{
		ChatId: "Cgroup000001", Type: model.MessageTypeText, Content: "hi",
	})
	if !errorx.IsNotFound(err) {
		t.Fatalf("member in admins-only group: err = %v, want not found", err)
	}
}

func TestSendVoiceNote(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	// 发送响应即带语音附加数据，无需再查一次
	rsp, err := svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeVoiceNote, MediaUrl: "a.ogg",
		Duration: 3, Waveform: "0a0b", Transcription: "hello there",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.VoiceNote == nil || rsp.VoiceNote.Duration != 3 || rsp.VoiceNote.Transcription != "hello there" {
		t.Fatalf("send rsp voice note = %+v", rsp.VoiceNote)
	}

	list, err := svc.GetChatMessages("Ualice000000", request.GetMessageListRequest{ChatId: "Cchat0000001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Id != rsp.Id {
		t.Fatalf("list = %+v", list)
	}
	if list[0].VoiceNote == nil || list[0].VoiceNote.Duration != 3 {
		t.Fatalf("voice note = %+v, want duration 3", list[0].VoiceNote)
	}
}

func TestSendReplyPreview(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "origin",
	})

	// 回复的发送响应内联被回复消息的预览
	rsp, err := svc.SendMessage("Ubob00000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "re", ReplyTo: id,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.ReplyPreview == nil || rsp.ReplyPreview.Id != id {
		t.Fatalf("reply preview = %+v", rsp.ReplyPreview)
	}
	if rsp.ReplyPreview.Content != "origin" || rsp.ReplyPreview.SenderName == "" {
		t.Fatalf("reply preview = %+v, want content and sender name", rsp.ReplyPreview)
	}

	// 历史分页同样带预览
	list, err := svc.GetChatMessages("Ualice000000", request.GetMessageListRequest{ChatId: "Cchat0000001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[1].ReplyPreview == nil || list[1].ReplyPreview.Id != id {
		t.Fatalf("list = %+v", list)
	}
}

func TestReplyMustBeInSameChat(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "origin",
	})

	_, err := svc.SendMessage("Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000002", Type: model.MessageTypeText, Content: "reply", ReplyTo: id,
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("cross-chat reply: err = %v, want invalid param", err)
	}
}

func TestEditMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hello",
	})

	rsp, err := svc.EditMessage("Ualice000000", request.EditMessageRequest{MessageId: id, Content: "hello!"})
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.Edited || rsp.Content != "hello!" {
		t.Fatalf("rsp = %+v", rsp)
	}

	// 非发送者编辑按不存在处理
	_, err = svc.EditMessage("Ubob00000000", request.EditMessageRequest{MessageId: id, Content: "hacked"})
	if !errorx.IsNotFound(err) {
		t.Fatalf("non sender: err = %v, want not found", err)
	}

	// 内容没变化
	_, err = svc.EditMessage("Ualice000000", request.EditMessageRequest{MessageId: id, Content: "hello!"})
	if !errorx.IsConflict(err) {
		t.Fatalf("unchanged content: err = %v, want conflict", err)
	}
}

func TestEditMessageWindowExpired(t *testing.T) {
	svc, repos, db := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hello",
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)

	// 把创建时间拨回到窗口之外
	old := time.Now().Add(-constants.EDIT_WINDOW - time.Minute)
	if err := db.Model(&model.Message{}).Where("uuid = ?", uuid).Update("created_at", old).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.EditMessage("Ualice000000", request.EditMessageRequest{MessageId: id, Content: "too late"})
	if !errorx.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestEditNonTextMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeImage, MediaUrl: "a.png",
	})

	_, err := svc.EditMessage("Ualice000000", request.EditMessageRequest{MessageId: id, Content: "x"})
	if !errorx.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestSoftDeleteMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "secret",
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)

	if err := svc.DeleteMessage("Ualice000000", request.DeleteMessageRequest{MessageId: id}); err != nil {
		t.Fatal(err)
	}

	// 原文被占位文本覆写，不可恢复
	msg, err := repos.Message.FindByUuid(uuid)
	if err != nil {
		t.Fatal(err)
	}
	if !msg.DeletedFlag || msg.Content != constants.DELETED_PLACEHOLDER {
		t.Fatalf("msg = %+v, want placeholder content", msg)
	}

	// 重复删除冲突
	err = svc.DeleteMessage("Ualice000000", request.DeleteMessageRequest{MessageId: id})
	if !errorx.IsConflict(err) {
		t.Fatalf("double delete: err = %v, want conflict", err)
	}

	// 已删除消息不能编辑
	_, err = svc.EditMessage("Ualice000000", request.EditMessageRequest{MessageId: id, Content: "revive"})
	if !errorx.IsConflict(err) {
		t.Fatalf("edit deleted: err = %v, want conflict", err)
	}
}

func TestSoftDeleteByModerator(t *testing.T) {
	svc, repos, db := newTestService(t)
	seedChat(t, repos, "Cgroup000001", true, false, "Uadmin000000", "Ubob00000000", "Umod00000000", "Ucarol000000")
	if err := db.Model(&model.Participant{}).
		Where("chat_uuid = ? AND user_uuid = ?", "Cgroup000001", "Umod00000000").
		Update("role", model.RoleModerator).Error; err != nil {
		t.Fatal(err)
	}

	send := func() string {
		return mustSend(t, svc, "Ubob00000000", request.SendMessageRequest{
			ChatId: "Cgroup000001", Type: model.MessageTypeText, Content: "spam",
		})
	}

	// 普通成员不能软删他人消息
	id := send()
	err := svc.DeleteMessage("Ucarol000000", request.DeleteMessageRequest{MessageId: id})
	if !errorx.IsNotFound(err) {
		t.Fatalf("plain member soft delete: err = %v, want not found", err)
	}

	// 管理员和协管员都可以软删他人消息
	if err := svc.DeleteMessage("Uadmin000000", request.DeleteMessageRequest{MessageId: id}); err != nil {
		t.Fatalf("admin soft delete: %v", err)
	}
	id = send()
	if err := svc.DeleteMessage("Umod00000000", request.DeleteMessageRequest{MessageId: id}); err != nil {
		t.Fatalf("moderator soft delete: %v", err)
	}

	// 协管员也可以硬删他人消息
	id = send()
	uuid, _ := strconv.ParseInt(id, 10, 64)
	if err := svc.DeleteMessage("Umod00000000", request.DeleteMessageRequest{MessageId: id, Hard: true}); err != nil {
		t.Fatalf("moderator hard delete: %v", err)
	}
	if _, err := repos.Message.FindByUuid(uuid); !errorx.IsNotFound(err) {
		t.Fatalf("message should be gone, err = %v", err)
	}
}

func TestSoftDeleteClearsMedia(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeImage,
		MediaUrl: "pic.png", MediaType: "image/png", FileName: "pic.png", FileSize: 1024,
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)

	if err := svc.DeleteMessage("Ualice000000", request.DeleteMessageRequest{MessageId: id}); err != nil {
		t.Fatal(err)
	}

	msg, err := repos.Message.FindByUuid(uuid)
	if err != nil {
		t.Fatal(err)
	}
	if msg.MediaUrl != "" || msg.MediaType != "" || msg.FileName != "" || msg.FileSize != 0 {
		t.Fatalf("media fields not cleared: %+v", msg)
	}
	if msg.Content != constants.DELETED_PLACEHOLDER {
		t.Fatalf("content = %q, want placeholder", msg.Content)
	}
}

func TestHardDeleteMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cgroup000001", true, false, "Uadmin000000", "Ubob00000000", "Ucarol000000")

	id := mustSend(t, svc, "Ubob00000000", request.SendMessageRequest{
		ChatId: "Cgroup000001", Type: model.MessageTypeText, Content: "spam",
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)
	replyId := mustSend(t, svc, "Ucarol000000", request.SendMessageRequest{
		ChatId: "Cgroup000001", Type: model.MessageTypeText, Content: "re", ReplyTo: id,
	})

	// 其他普通成员无权硬删
	err := svc.DeleteMessage("Ucarol000000", request.DeleteMessageRequest{MessageId: id, Hard: true})
	if !errorx.IsNotFound(err) {
		t.Fatalf("plain member hard delete: err = %v, want not found", err)
	}

	// 群管理员可以硬删他人消息
	if err := svc.DeleteMessage("Uadmin000000", request.DeleteMessageRequest{MessageId: id, Hard: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Message.FindByUuid(uuid); !errorx.IsNotFound(err) {
		t.Fatalf("message should be gone, err = %v", err)
	}

	// 指向它的回复引用被置空
	replyUuid, _ := strconv.ParseInt(replyId, 10, 64)
	reply, err := repos.Message.FindByUuid(replyUuid)
	if err != nil {
		t.Fatal(err)
	}
	if reply.ReplyToUuid != 0 {
		t.Fatalf("reply_to_uuid = %d, want 0", reply.ReplyToUuid)
	}
}

func TestForwardMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")
	seedChat(t, repos, "Cchat0000003", false, false, "Ualice000000", "Udave0000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "origin",
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)

	rsp, err := svc.ForwardMessage("Ualice000000", request.ForwardMessageRequest{
		MessageId:     id,
		TargetChatIds: []string{"Cchat0000002", "Cchat0000003"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.RootId != id {
		t.Fatalf("root = %s, want %s", rsp.RootId, id)
	}
	if !rsp.Targets[0].Ok || !rsp.Targets[1].Ok {
		t.Fatalf("targets = %+v", rsp.Targets)
	}
	if rsp.ForwardCount != 2 {
		t.Fatalf("forward count = %d, want 2", rsp.ForwardCount)
	}

	root, err := repos.Message.FindByUuid(uuid)
	if err != nil {
		t.Fatal(err)
	}
	if root.ForwardCount != 2 {
		t.Fatalf("persisted forward count = %d, want 2", root.ForwardCount)
	}
}

func TestForwardUnauthorizedTargetRejectsAll(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")
	seedChat(t, repos, "Cchat0000003", false, false, "Ucarol000000", "Udave0000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "origin",
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)

	// Cchat0000003 不是 alice 的聊天，整个请求失败，任何目标都不写入
	_, err := svc.ForwardMessage("Ualice000000", request.ForwardMessageRequest{
		MessageId:     id,
		TargetChatIds: []string{"Cchat0000002", "Cchat0000003"},
	})
	if !errorx.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}

	root, err := repos.Message.FindByUuid(uuid)
	if err != nil {
		t.Fatal(err)
	}
	if root.ForwardCount != 0 {
		t.Fatalf("forward count = %d, want 0", root.ForwardCount)
	}
	if records, err := repos.Forward.FindByRoot(uuid); err != nil || len(records) != 0 {
		t.Fatalf("records = %v, err = %v, want none", records, err)
	}
	if list, err := svc.GetChatMessages("Ualice000000", request.GetMessageListRequest{ChatId: "Cchat0000002"}); err != nil || len(list) != 0 {
		t.Fatalf("authorized target received a copy: list = %+v, err = %v", list, err)
	}
}

func TestForwardOfForwardPointsToRoot(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ubob00000000", "Ucarol000000")
	seedChat(t, repos, "Cchat0000003", false, false, "Ucarol000000", "Udave0000000")

	rootId := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "origin",
	})

	first, err := svc.ForwardMessage("Ubob00000000", request.ForwardMessageRequest{
		MessageId: rootId, TargetChatIds: []string{"Cchat0000002"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// 转发转发出来的消息，根仍是最初那条
	second, err := svc.ForwardMessage("Ucarol000000", request.ForwardMessageRequest{
		MessageId: first.Targets[0].MessageId, TargetChatIds: []string{"Cchat0000003"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.RootId != rootId {
		t.Fatalf("root = %s, want %s", second.RootId, rootId)
	}
	if second.ForwardCount != 2 {
		t.Fatalf("forward count = %d, want 2", second.ForwardCount)
	}
}

func TestForwardWithCaption(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "original",
	})

	rsp, err := svc.ForwardMessage("Ualice000000", request.ForwardMessageRequest{
		MessageId: id, TargetChatIds: []string{"Cchat0000002"}, Caption: "  check this  ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.Targets[0].Ok {
		t.Fatalf("target = %+v", rsp.Targets[0])
	}

	// 副本内容被附言替换，原消息不动
	copyUuid, _ := strconv.ParseInt(rsp.Targets[0].MessageId, 10, 64)
	forwarded, err := repos.Message.FindByUuid(copyUuid)
	if err != nil {
		t.Fatal(err)
	}
	if forwarded.Content != "check this" {
		t.Fatalf("content = %q, want caption", forwarded.Content)
	}
	srcUuid, _ := strconv.ParseInt(id, 10, 64)
	source, err := repos.Message.FindByUuid(srcUuid)
	if err != nil {
		t.Fatal(err)
	}
	if source.Content != "original" {
		t.Fatalf("source content = %q", source.Content)
	}
}

func TestForwardMediaWithCaption(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeImage, Content: "old caption",
		MediaUrl: "pic.png", MediaType: "image/png", FileName: "pic.png", FileSize: 512,
	})

	rsp, err := svc.ForwardMessage("Ualice000000", request.ForwardMessageRequest{
		MessageId: id, TargetChatIds: []string{"Cchat0000002"}, Caption: "new caption",
	})
	if err != nil {
		t.Fatal(err)
	}

	// 附言对任意类型都替换原文，媒体描述符原样复制
	copyUuid, _ := strconv.ParseInt(rsp.Targets[0].MessageId, 10, 64)
	forwarded, err := repos.Message.FindByUuid(copyUuid)
	if err != nil {
		t.Fatal(err)
	}
	if forwarded.Content != "new caption" {
		t.Fatalf("content = %q, want new caption", forwarded.Content)
	}
	if forwarded.MediaUrl != "pic.png" || forwarded.MediaType != "image/png" ||
		forwarded.FileName != "pic.png" || forwarded.FileSize != 512 {
		t.Fatalf("media descriptor not copied: %+v", forwarded)
	}
}

func TestForwardDeletedMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "gone soon",
	})
	if err := svc.DeleteMessage("Ualice000000", request.DeleteMessageRequest{MessageId: id}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ForwardMessage("Ualice000000", request.ForwardMessageRequest{
		MessageId: id, TargetChatIds: []string{"Cchat0000002"},
	})
	if !errorx.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestToggleReaction(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hi",
	})

	// 开
	rsp, err := svc.ToggleReaction("Ubob00000000", request.ReactionRequest{MessageId: id, Emoji: "👍"})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Action != "added" {
		t.Fatalf("action = %s, want added", rsp.Action)
	}
	if len(rsp.Reactions) != 1 || rsp.Reactions[0].Count != 1 {
		t.Fatalf("reactions = %+v", rsp.Reactions)
	}

	// 两个人同一表情
	rsp, err = svc.ToggleReaction("Ualice000000", request.ReactionRequest{MessageId: id, Emoji: "👍"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rsp.Reactions) != 1 || rsp.Reactions[0].Count != 2 {
		t.Fatalf("reactions = %+v", rsp.Reactions)
	}

	// 再次提交同一表情即取消
	rsp, err = svc.ToggleReaction("Ubob00000000", request.ReactionRequest{MessageId: id, Emoji: "👍"})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Action != "removed" {
		t.Fatalf("action = %s, want removed", rsp.Action)
	}
	if len(rsp.Reactions) != 1 || rsp.Reactions[0].Count != 1 {
		t.Fatalf("after toggle off: reactions = %+v", rsp.Reactions)
	}

	// 取消后还能再加回来（物理删除回应记录）
	rsp, err = svc.ToggleReaction("Ubob00000000", request.ReactionRequest{MessageId: id, Emoji: "👍"})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Action != "added" {
		t.Fatalf("action = %s, want added", rsp.Action)
	}
	if len(rsp.Reactions) != 1 || rsp.Reactions[0].Count != 2 {
		t.Fatalf("after re-add: reactions = %+v", rsp.Reactions)
	}
}

func TestGetChatMessagesPagination(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	var ids []string
	for _, content := range []string{"m1", "m2", "m3"} {
		ids = append(ids, mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
			ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: content,
		}))
	}

	// 第一页：最新两条，时间正序返回
	page, err := svc.GetChatMessages("Ubob00000000", request.GetMessageListRequest{
		ChatId: "Cchat0000001", Limit: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Content != "m2" || page[1].Content != "m3" {
		t.Fatalf("page = %+v", page)
	}

	// 翻旧页
	page, err = svc.GetChatMessages("Ubob00000000", request.GetMessageListRequest{
		ChatId: "Cchat0000001", Limit: 2, Before: page[0].Id,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Content != "m1" {
		t.Fatalf("older page = %+v", page)
	}

	// 拉历史即视为已读
	receipt, err := repos.ReadReceipt.Find("Cchat0000001", "Ubob00000000")
	if err != nil {
		t.Fatal(err)
	}
	count, err := repos.Message.CountUnread("Cchat0000001", "Ubob00000000", receipt.ReadAt)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("unread after read = %d, want 0", count)
	}

	// 已读水位推进到最新一条，且只前进不后退
	newest, _ := strconv.ParseInt(ids[2], 10, 64)
	p, err := repos.Participant.Find("Cchat0000001", "Ubob00000000")
	if err != nil {
		t.Fatal(err)
	}
	if p.LastReadMessageId < newest {
		t.Fatalf("last read = %d, want >= %d", p.LastReadMessageId, newest)
	}
	highest := p.LastReadMessageId

	if _, err := svc.GetChatMessages("Ubob00000000", request.GetMessageListRequest{
		ChatId: "Cchat0000001", Limit: 2, Before: ids[1],
	}); err != nil {
		t.Fatal(err)
	}
	p, err = repos.Participant.Find("Cchat0000001", "Ubob00000000")
	if err != nil {
		t.Fatal(err)
	}
	if p.LastReadMessageId != highest {
		t.Fatalf("last read regressed to %d, want %d", p.LastReadMessageId, highest)
	}
}

func TestSearchMessages(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", false, false, "Ualice000000", "Ucarol000000")
	seedChat(t, repos, "Cother000001", false, false, "Ucarol000000", "Udave0000000")

	mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "release notes ready",
	})
	mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000002", Type: model.MessageTypeText, Content: "notes from meeting",
	})
	mustSend(t, svc, "Ucarol000000", request.SendMessageRequest{
		ChatId: "Cother000001", Type: model.MessageTypeText, Content: "private notes",
	})

	// 全局搜索只命中自己聊天里的消息
	results, err := svc.SearchMessages("Ualice000000", request.SearchMessagesRequest{Query: "notes"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}

	// 指定聊天搜索
	results, err = svc.SearchMessages("Ualice000000", request.SearchMessagesRequest{
		ChatId: "Cchat0000001", Query: "notes",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Content != "release notes ready" {
		t.Fatalf("results = %+v", results)
	}

	// 非成员指定聊天搜索
	_, err = svc.SearchMessages("Ualice000000", request.SearchMessagesRequest{
		ChatId: "Cother000001", Query: "notes",
	})
	if !errorx.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSearchMessagesFilters(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	first := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "notes v1",
	})
	mustSend(t, svc, "Ubob00000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "notes v2",
	})

	// 按发送者过滤
	results, err := svc.SearchMessages("Ualice000000", request.SearchMessagesRequest{
		Query: "notes", SenderId: "Ubob00000000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Content != "notes v2" {
		t.Fatalf("results = %+v", results)
	}

	// 按消息 ID 向前翻页
	secondUuid := results[0].Id
	results, err = svc.SearchMessages("Ualice000000", request.SearchMessagesRequest{
		Query: "notes", Before: secondUuid,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Id != first {
		t.Fatalf("results = %+v", results)
	}
}

// stubTranslator 翻译协作方桩实现
type stubTranslator struct {
	out string
	err error
}

func (s *stubTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return s.out, s.err
}

func TestTranslateMessage(t *testing.T) {
	svc, repos, _ := newTestService(t)
	svc.translator = &stubTranslator{out: "hola"}
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hello",
	})

	rsp, err := svc.TranslateMessage(context.Background(), "Ubob00000000", request.TranslateMessageRequest{
		MessageId: id, TargetLang: "es",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Content != "hola" || rsp.FromCache || rsp.Degraded {
		t.Fatalf("rsp = %+v", rsp)
	}

	// 第二次走缓存，不再调外部服务
	svc.translator = &stubTranslator{err: errors.New("should not be called")}
	rsp, err = svc.TranslateMessage(context.Background(), "Ubob00000000", request.TranslateMessageRequest{
		MessageId: id, TargetLang: "es",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.FromCache || rsp.Content != "hola" {
		t.Fatalf("rsp = %+v, want cache hit", rsp)
	}
}

func TestTranslateMessageDegraded(t *testing.T) {
	svc, repos, _ := newTestService(t)
	svc.translator = &stubTranslator{err: errors.New("upstream down")}
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hello",
	})

	rsp, err := svc.TranslateMessage(context.Background(), "Ubob00000000", request.TranslateMessageRequest{
		MessageId: id, TargetLang: "es",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.Degraded || rsp.Content != "[ES] hello" {
		t.Fatalf("rsp = %+v, want degraded marked fallback", rsp)
	}

	// 降级译文不落缓存：恢复后应拿到真实译文
	svc.translator = &stubTranslator{out: "hola"}
	rsp, err = svc.TranslateMessage(context.Background(), "Ubob00000000", request.TranslateMessageRequest{
		MessageId: id, TargetLang: "es",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Degraded || rsp.FromCache || rsp.Content != "hola" {
		t.Fatalf("rsp = %+v, want fresh translation", rsp)
	}
}

func TestTranslateNonText(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeImage, MediaUrl: "a.png",
	})

	_, err := svc.TranslateMessage(context.Background(), "Ubob00000000", request.TranslateMessageRequest{
		MessageId: id, TargetLang: "es",
	})
	if !errorx.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestBuildRespond(t *testing.T) {
	svc, repos, _ := newTestService(t)
	seedChat(t, repos, "Cchat0000001", false, false, "Ualice000000", "Ubob00000000")

	id := mustSend(t, svc, "Ualice000000", request.SendMessageRequest{
		ChatId: "Cchat0000001", Type: model.MessageTypeText, Content: "hello",
	})
	uuid, _ := strconv.ParseInt(id, 10, 64)

	rsp, err := svc.BuildRespond(uuid)
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Id != id || rsp.ChatId != "Cchat0000001" {
		t.Fatalf("rsp = %+v", rsp)
	}
}
