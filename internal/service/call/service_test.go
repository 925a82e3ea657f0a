package call

import (
	"sort"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dao "whispr_chat_server/internal/dao/mysql"
	"whispr_chat_server/internal/dao/mysql/repository"
	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/model"
	"whispr_chat_server/pkg/errorx"
)

func newTestService(t *testing.T) (*callService, *repository.Repositories) {
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
	return NewCallService(repos), repos
}

func seedChat(t *testing.T, repos *repository.Repositories, chatUuid string, members ...string) {
	t.Helper()
	if err := repos.Chat.Create(&model.Chat{Uuid: chatUuid, OwnerId: members[0]}); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	for _, u := range members {
		if err := repos.Participant.Create(&model.Participant{
			ChatUuid: chatUuid, UserUuid: u, Role: model.RoleMember, JoinedAt: now,
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStartCall(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000", "Ucarol000000")

	rsp, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Status != model.CallStatusInitiated || rsp.InitiatorId != "Ualice000000" {
		t.Fatalf("rsp = %+v", rsp)
	}

	// 聊天全员入通话成员表：发起者 joined，其余 invited
	if len(rsp.Participants) != 3 {
		t.Fatalf("participants = %+v, want 3", rsp.Participants)
	}
	statusByUser := make(map[string]string)
	for _, p := range rsp.Participants {
		statusByUser[p.UserId] = p.Status
	}
	if statusByUser["Ualice000000"] != model.CallPartJoined {
		t.Fatalf("initiator status = %s, want joined", statusByUser["Ualice000000"])
	}
	if statusByUser["Ubob00000000"] != model.CallPartInvited || statusByUser["Ucarol000000"] != model.CallPartInvited {
		t.Fatalf("invitee statuses = %+v", statusByUser)
	}

	// 同一聊天内已有进行中通话
	_, err = svc.StartCall("Ubob00000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeVideo,
	})
	if !errorx.IsConflict(err) {
		t.Fatalf("second call: err = %v, want conflict", err)
	}
}

func TestStartCallNonMember(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000")

	_, err := svc.StartCall("Ughost000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if !errorx.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestEndCallNeverAnsweredIsMissed(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000")

	started, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 从未接通，结束即 missed
	ended, err := svc.EndCall("Ualice000000", started.Id)
	if err != nil {
		t.Fatal(err)
	}
	if ended.Status != model.CallStatusMissed || ended.EndedAt == "" {
		t.Fatalf("ended = %+v, want missed", ended)
	}

	// 重复结束冲突
	_, err = svc.EndCall("Ualice000000", started.Id)
	if !errorx.IsConflict(err) {
		t.Fatalf("double end: err = %v, want conflict", err)
	}

	// 结束后可以再发起新通话
	if _, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeVideo,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestEndCallAfterAnswerIsEnded(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000")

	started, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 接听信令把通话推进到 answered，接听方标记 joined
	if _, err := svc.RouteSignal("Ubob00000000", started.Id, SignalAnswer, ""); err != nil {
		t.Fatal(err)
	}
	call, err := repos.Call.FindByUuid(started.Id)
	if err != nil {
		t.Fatal(err)
	}
	if call.Status != model.CallStatusAnswered {
		t.Fatalf("status = %s, want answered", call.Status)
	}
	p, err := repos.Call.FindParticipant(started.Id, "Ubob00000000")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.CallPartJoined || !p.JoinedAt.Valid {
		t.Fatalf("participant = %+v, want joined with timestamp", p)
	}

	// 接通过的通话结束即 ended，结束者标记 left
	ended, err := svc.EndCall("Ubob00000000", started.Id)
	if err != nil {
		t.Fatal(err)
	}
	if ended.Status != model.CallStatusEnded {
		t.Fatalf("ended = %+v, want ended", ended)
	}
	p, err = repos.Call.FindParticipant(started.Id, "Ubob00000000")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.CallPartLeft || !p.LeftAt.Valid {
		t.Fatalf("participant = %+v, want left with timestamp", p)
	}
}

func TestRouteSignalValidation(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000")
	seedChat(t, repos, "Cchat0000002", "Ucarol000000", "Udave0000000")

	started, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 缺 call_id
	if _, err := svc.RouteSignal("Ualice000000", "", SignalOffer, ""); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("missing call id: err = %v, want invalid param", err)
	}

	// 未知信令类型
	if _, err := svc.RouteSignal("Ualice000000", started.Id, "hijack", ""); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("bad signal type: err = %v, want invalid param", err)
	}

	// 非通话成员发不了信令
	if _, err := svc.RouteSignal("Ucarol000000", started.Id, SignalOffer, ""); !errorx.IsNotFound(err) {
		t.Fatalf("outsider: err = %v, want not found", err)
	}

	// 目标也必须是通话成员
	if _, err := svc.RouteSignal("Ualice000000", started.Id, SignalOffer, "Ucarol000000"); !errorx.IsNotFound(err) {
		t.Fatalf("outsider target: err = %v, want not found", err)
	}

	// 已结束的通话不再转发信令
	if _, err := svc.EndCall("Ualice000000", started.Id); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RouteSignal("Ualice000000", started.Id, SignalOffer, ""); !errorx.IsConflict(err) {
		t.Fatalf("ended call: err = %v, want conflict", err)
	}
}

func TestRouteSignalTargets(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000", "Ucarol000000")

	started, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 不指定目标时发给除发送者外的全部通话成员
	route, err := svc.RouteSignal("Ualice000000", started.Id, SignalOffer, "")
	if err != nil {
		t.Fatal(err)
	}
	if route.ChatId != "Cchat0000001" {
		t.Fatalf("chat = %s", route.ChatId)
	}
	sort.Strings(route.Targets)
	if len(route.Targets) != 2 || route.Targets[0] != "Ubob00000000" || route.Targets[1] != "Ucarol000000" {
		t.Fatalf("targets = %v", route.Targets)
	}

	// 定向信令只发给指定成员
	route, err = svc.RouteSignal("Ubob00000000", started.Id, SignalAnswer, "Ualice000000")
	if err != nil {
		t.Fatal(err)
	}
	if len(route.Targets) != 1 || route.Targets[0] != "Ualice000000" {
		t.Fatalf("targets = %v", route.Targets)
	}
}

func TestRouteSignalAdvancesRinging(t *testing.T) {
	svc, repos := newTestService(t)
	seedChat(t, repos, "Cchat0000001", "Ualice000000", "Ubob00000000")

	started, err := svc.StartCall("Ualice000000", request.StartCallRequest{
		ChatId: "Cchat0000001", Type: model.CallTypeAudio,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RouteSignal("Ubob00000000", started.Id, SignalRinging, ""); err != nil {
		t.Fatal(err)
	}
	call, err := repos.Call.FindByUuid(started.Id)
	if err != nil {
		t.Fatal(err)
	}
	if call.Status != model.CallStatusRinging {
		t.Fatalf("status = %s, want ringing", call.Status)
	}

	// 拒接只改成员状态，通话保持进行中
	if _, err := svc.RouteSignal("Ubob00000000", started.Id, SignalDecline, ""); err != nil {
		t.Fatal(err)
	}
	p, err := repos.Call.FindParticipant(started.Id, "Ubob00000000")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.CallPartDeclined {
		t.Fatalf("participant = %+v, want declined", p)
	}
	call, err = repos.Call.FindByUuid(started.Id)
	if err != nil {
		t.Fatal(err)
	}
	if !call.IsActive() {
		t.Fatalf("call status = %s, want still active", call.Status)
	}
}
