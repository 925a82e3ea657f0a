package presence

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMultiConnPresence(t *testing.T) {
	tr := NewTracker()

	if !tr.AddConnection("u1", "c1") {
		t.Fatal("first connection should report became online")
	}
	if tr.AddConnection("u1", "c2") {
		t.Fatal("second connection should not report became online")
	}
	if got := tr.ConnectionCount("u1"); got != 2 {
		t.Fatalf("connection count = %d, want 2", got)
	}

	if tr.RemoveConnection("u1", "c1") {
		t.Fatal("still one connection left, should not report went offline")
	}
	if !tr.IsOnline("u1") {
		t.Fatal("u1 should still be online")
	}
	if !tr.RemoveConnection("u1", "c2") {
		t.Fatal("last connection removed, should report went offline")
	}
	if tr.IsOnline("u1") {
		t.Fatal("u1 should be offline")
	}
}

func TestRemoveUnknownConnection(t *testing.T) {
	tr := NewTracker()
	if tr.RemoveConnection("nobody", "c1") {
		t.Fatal("removing unknown connection should not report went offline")
	}

	tr.AddConnection("u1", "c1")
	if tr.RemoveConnection("u1", "other") {
		t.Fatal("removing wrong conn id should not report went offline")
	}
}

func TestTypingLeaseExpiry(t *testing.T) {
	now := time.Now()
	tr := NewTrackerWithClock(func() time.Time { return now })

	tr.AddConnection("u1", "c1")
	tr.StartTyping("chat1", "u1")

	// 9 秒后仍在租约内
	now = now.Add(9 * time.Second)
	if users := tr.TypingUsers("chat1"); len(users) != 1 || users[0] != "u1" {
		t.Fatalf("typing users = %v, want [u1]", users)
	}

	// 再发一次续租
	tr.StartTyping("chat1", "u1")
	now = now.Add(9 * time.Second)
	if users := tr.TypingUsers("chat1"); len(users) != 1 {
		t.Fatalf("lease should be renewed, got %v", users)
	}

	// 超过 10 秒自动过期
	now = now.Add(2 * time.Second)
	if users := tr.TypingUsers("chat1"); len(users) != 0 {
		t.Fatalf("lease should be expired, got %v", users)
	}
}

func TestStopTyping(t *testing.T) {
	now := time.Now()
	tr := NewTrackerWithClock(func() time.Time { return now })

	tr.StartTyping("chat1", "u1")
	tr.StopTyping("chat1", "u1")
	if users := tr.TypingUsers("chat1"); len(users) != 0 {
		t.Fatalf("typing users = %v, want empty", users)
	}
}

func TestSweepExpired(t *testing.T) {
	now := time.Now()
	tr := NewTrackerWithClock(func() time.Time { return now })

	tr.StartTyping("chat1", "u1")
	tr.StartTyping("chat1", "u2")
	tr.StartTyping("chat2", "u1")

	now = now.Add(11 * time.Second)
	expired := tr.SweepExpired()
	if len(expired["chat1"]) != 2 {
		t.Fatalf("chat1 expired = %v, want 2 users", expired["chat1"])
	}
	if len(expired["chat2"]) != 1 {
		t.Fatalf("chat2 expired = %v, want 1 user", expired["chat2"])
	}

	// 再扫一遍应该什么都没有
	if expired := tr.SweepExpired(); len(expired) != 0 {
		t.Fatalf("second sweep = %v, want empty", expired)
	}
}

func TestOfflineClearsTypingAndStatus(t *testing.T) {
	now := time.Now()
	tr := NewTrackerWithClock(func() time.Time { return now })

	tr.AddConnection("u1", "c1")
	tr.SetStatus("u1", "busy")
	tr.StartTyping("chat1", "u1")

	tr.RemoveConnection("u1", "c1")
	if users := tr.TypingUsers("chat1"); len(users) != 0 {
		t.Fatalf("offline should clear typing leases, got %v", users)
	}
	if s := tr.Status("u1"); s != "" {
		t.Fatalf("offline should clear status, got %q", s)
	}
}

func TestOnlineUsersFilter(t *testing.T) {
	tr := NewTracker()
	tr.AddConnection("u1", "c1")
	tr.AddConnection("u2", "c1")

	got := tr.OnlineUsers([]string{"u1", "u3"})
	if len(got) != 1 || got[0] != "u1" {
		t.Fatalf("online users = %v, want [u1]", got)
	}
}

func TestInvisibleReadsAsOffline(t *testing.T) {
	tr := NewTracker()
	tr.AddConnection("u1", "c1")

	tr.SetInvisible("u1", true)
	if tr.IsOnline("u1") {
		t.Fatal("invisible user should read as offline")
	}
	if got := tr.OnlineUsers([]string{"u1"}); len(got) != 0 {
		t.Fatalf("online users = %v, want empty", got)
	}
	// 连接本身还在
	if got := tr.ConnectionCount("u1"); got != 1 {
		t.Fatalf("connection count = %d, want 1", got)
	}

	tr.SetInvisible("u1", false)
	if !tr.IsOnline("u1") {
		t.Fatal("visible again, should be online")
	}

	// 全部断开后隐身标记清零，下次上线默认可见
	tr.SetInvisible("u1", true)
	tr.RemoveConnection("u1", "c1")
	tr.AddConnection("u1", "c2")
	if !tr.IsOnline("u1") {
		t.Fatal("fresh session should start visible")
	}
}

func TestConcurrentShards(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i)
			chat := fmt.Sprintf("chat%d", i%4)
			for j := 0; j < 100; j++ {
				tr.AddConnection(user, "c1")
				tr.StartTyping(chat, user)
				tr.TypingUsers(chat)
				tr.SetStatus(user, "busy")
				tr.IsOnline(user)
				tr.StopTyping(chat, user)
				tr.RemoveConnection(user, "c1")
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		if tr.IsOnline(fmt.Sprintf("u%d", i)) {
			t.Fatalf("u%d should be offline", i)
		}
	}
	if expired := tr.SweepExpired(); len(expired) != 0 {
		t.Fatalf("leftover leases = %v", expired)
	}
}
