package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

type recordingExecutor struct {
	mu      sync.Mutex
	actions []gesture.Action
}

func (r *recordingExecutor) Dispatch(_ context.Context, a gesture.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return nil
}

func (r *recordingExecutor) Actions() []gesture.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gesture.Action(nil), r.actions...)
}

func hand(up [5]bool, face bool) *detector.Observation {
	return &detector.Observation{
		Hands:       []detector.HandLandmarks{detector.PoseLandmarks(up)},
		FacePresent: face,
	}
}

func times(obs *detector.Observation, n int) []*detector.Observation {
	out := make([]*detector.Observation, n)
	for i := range out {
		out[i] = obs
	}
	return out
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	camera, release := capture.NewBlankCamera(10)
	defer release()

	// Four open palms confirm play/pause, four index fingers are refused by
	// the cooldown, then the viewer leaves and playback pauses once.
	mock := detector.NewMockDetector()
	palm := [5]bool{true, true, true, true, true}
	index := [5]bool{false, true, false, false, false}
	mock.Script(times(hand(palm, true), 4)...)
	mock.Script(times(hand(index, true), 4)...)
	mock.Script(times(&detector.Observation{}, 2)...)

	exec := &recordingExecutor{}
	log := logging.Discard()
	ctrl := app.NewController(app.ControllerConfig{
		ConfirmThreshold: gesture.DefaultConfirmThreshold,
		Cooldown:         time.Hour,
		HandLimit:        1,
		Sources: func(gesture.Mode) (app.Source, error) {
			return app.NewCameraSource(camera, mock), nil
		},
		Executor: exec,
		Journal:  app.NewJournal(s, log),
		Logger:   log,
	})

	srv := server.New(server.Config{Controller: ctrl, Store: s, Events: server.NewEventHub(log)})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	var sessionID string
	t.Run("StartSession", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(`{"mode": "ott"}`))
		if err != nil {
			t.Fatalf("start session error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var info app.SessionInfo
		json.NewDecoder(resp.Body).Decode(&info)
		sessionID = info.ID
	})

	ctrl.Wait(gesture.ModeOtt)

	t.Run("ActionsSent", func(t *testing.T) {
		got := exec.Actions()
		want := []gesture.Action{
			{Mode: gesture.ModeOtt, Label: gesture.LabelPlayPause},
			{Mode: gesture.ModeOtt, Label: gesture.LabelPlayPause},
		}
		if len(got) != len(want) {
			t.Fatalf("actions = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("action %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("CameraReleased", func(t *testing.T) {
		if camera.IsOpen() {
			t.Error("camera still open after end of stream")
		}
		if !mock.Closed() {
			t.Error("detector not closed after end of stream")
		}
	})

	t.Run("JournalViaAPI", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + sessionID)
		if err != nil {
			t.Fatalf("get session error = %v", err)
		}
		var sess struct {
			Mode       string `json:"mode"`
			EndReason  string `json:"end_reason"`
			Dispatched int    `json:"dispatched"`
			Failed     int    `json:"failed"`
		}
		json.NewDecoder(resp.Body).Decode(&sess)
		resp.Body.Close()

		if sess.Mode != "ott" || sess.EndReason != app.ReasonEndOfStream {
			t.Errorf("session = %+v", sess)
		}
		if sess.Dispatched != 2 || sess.Failed != 0 {
			t.Errorf("dispatched = %d, failed = %d, want 2 and 0", sess.Dispatched, sess.Failed)
		}

		resp, err = client.Get(ts.URL + "/api/sessions/" + sessionID + "/dispatches")
		if err != nil {
			t.Fatalf("list dispatches error = %v", err)
		}
		var listed struct {
			Dispatches []struct {
				Gesture string `json:"gesture"`
				Source  string `json:"source"`
			} `json:"dispatches"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		resp.Body.Close()

		if len(listed.Dispatches) != 2 {
			t.Fatalf("expected 2 dispatches, got %d", len(listed.Dispatches))
		}
		if listed.Dispatches[0].Source != store.SourceGesture || listed.Dispatches[1].Source != store.SourcePresence {
			t.Errorf("dispatch sources = %+v", listed.Dispatches)
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, _ := client.Get(ts.URL + "/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after session ended")
		}
		resp.Body.Close()
	})
}

func TestE2E_DryRunBothModes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	var releases []func()
	defer func() {
		for _, r := range releases {
			r()
		}
	}()

	// Next video exists only in YouTube mode.
	next := [5]bool{false, true, true, false, false}
	var mu sync.Mutex
	var sent []app.Event

	log := logging.Discard()
	ctrl := app.NewController(app.ControllerConfig{
		ConfirmThreshold: gesture.DefaultConfirmThreshold,
		Cooldown:         gesture.DefaultCooldown,
		HandLimit:        1,
		Sources: func(gesture.Mode) (app.Source, error) {
			camera, release := capture.NewBlankCamera(4)
			releases = append(releases, release)
			mock := detector.NewMockDetector()
			mock.SetHands([]detector.HandLandmarks{detector.PoseLandmarks(next)})
			return app.NewCameraSource(camera, mock), nil
		},
		Executor: app.NewLogExecutor(log),
		Journal:  app.NewJournal(s, log),
		Logger:   log,
	})
	ctrl.Subscribe(app.PublisherFunc(func(e app.Event) {
		if e.Type == app.EventDispatch {
			mu.Lock()
			sent = append(sent, e)
			mu.Unlock()
		}
	}))

	for _, mode := range gesture.Modes {
		if _, err := ctrl.Start(mode); err != nil {
			t.Fatalf("Start(%s) error = %v", mode, err)
		}
		ctrl.Wait(mode)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("dispatch events = %+v, want one", sent)
	}
	if sent[0].Mode != gesture.ModeYoutube || sent[0].Action != string(gesture.LabelNextVideo) || !sent[0].Success {
		t.Errorf("event = %+v", sent[0])
	}

	sessions, err := s.Sessions().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("journal has %d sessions, want 2", len(sessions))
	}
	for _, sess := range sessions {
		if sess.Active() {
			t.Errorf("session %s still active", sess.ID)
		}
	}
}
