package fanout_test

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	connectionentity "github.com/unplugd-audio/unplugd-be/src/server/internal/connection/entity"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/notify/fanout"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
)

type stubConnectionStore struct {
	Unavailable bool
	State       map[string][]connectionentity.Connection
}

func newStubConnectionStore() *stubConnectionStore {
	return &stubConnectionStore{
		State: make(map[string][]connectionentity.Connection),
	}
}

func (s *stubConnectionStore) CreateConnection(_ context.Context, connection connectionentity.Connection) error {
	if s.Unavailable {
		return errors.New("store is unavailable")
	}

	s.State[connection.OwnerID] = append(s.State[connection.OwnerID], connection)
	return nil
}

func (s *stubConnectionStore) DeleteConnection(_ context.Context, ownerID string, connectionID string) error {
	if s.Unavailable {
		return errors.New("store is unavailable")
	}

	kept := []connectionentity.Connection{}
	for _, connection := range s.State[ownerID] {
		if connection.ConnectionID != connectionID {
			kept = append(kept, connection)
		}
	}

	s.State[ownerID] = kept
	return nil
}

func (s *stubConnectionStore) GetConnectionsForOwner(_ context.Context, ownerID string) ([]connectionentity.Connection, error) {
	if s.Unavailable {
		return nil, errors.New("store is unavailable")
	}

	return s.State[ownerID], nil
}

type stubPusher struct {
	Pushed      map[string][][]byte
	Unreachable map[string]bool
}

func newStubPusher() *stubPusher {
	return &stubPusher{
		Pushed:      make(map[string][][]byte),
		Unreachable: make(map[string]bool),
	}
}

func (s *stubPusher) Push(connectionID string, data []byte) error {
	if s.Unreachable[connectionID] {
		return errors.New("socket is closed")
	}

	s.Pushed[connectionID] = append(s.Pushed[connectionID], data)
	return nil
}

var _ = Describe("Fanout", func() {
	var (
		connectionStore *stubConnectionStore
		pusher          *stubPusher
		notifier        fanout.Fanout

		ownerID      string
		notification notify.Notification

		err error
	)

	addConnection := func(ownerID string, connectionID string, expiresAt time.Time) {
		createErr := connectionStore.CreateConnection(context.Background(), connectionentity.Connection{
			OwnerID:      ownerID,
			ConnectionID: connectionID,
			ConnectedAt:  time.Now().Add(-time.Minute),
			ExpiresAt:    expiresAt,
		})
		Expect(createErr).NotTo(HaveOccurred())
	}

	connectionIDs := func(ownerID string) []string {
		ids := []string{}
		for _, connection := range connectionStore.State[ownerID] {
			ids = append(ids, connection.ConnectionID)
		}

		return ids
	}

	BeforeEach(func() {
		connectionStore = newStubConnectionStore()
		pusher = newStubPusher()
		notifier = fanout.NewFanout(connectionStore, pusher)

		ownerID = "owner-id"
		notification = notify.Notification{
			OwnerID: ownerID,
			Event: notify.Event{
				Type:     notify.EventProgress,
				SongID:   "song-id",
				Stage:    "demucs",
				Progress: 15,
				Message:  "Separating stems with Demucs...",
			},
		}
	})

	JustBeforeEach(func() {
		err = notifier.Deliver(context.Background(), notification)
	})

	Describe("Owner has several live connections", func() {
		BeforeEach(func() {
			for i := 0; i < 3; i++ {
				addConnection(ownerID, fmt.Sprintf("connection-%d", i), time.Now().Add(time.Hour))
			}
		})

		It("pushes the event to every connection", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pusher.Pushed).To(HaveLen(3))
		})

		It("pushes the bare event, not the envelope", func() {
			payload := pusher.Pushed["connection-0"][0]

			event := notify.Event{}
			Expect(json.Unmarshal(payload, &event)).To(Succeed())
			Expect(event).To(Equal(notification.Event))

			Expect(string(payload)).NotTo(ContainSubstring(ownerID))
		})
	})

	Describe("Owner has no connections", func() {
		It("succeeds without pushing anything", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pusher.Pushed).To(BeEmpty())
		})
	})

	Describe("One connection is unreachable", func() {
		BeforeEach(func() {
			addConnection(ownerID, "connection-live", time.Now().Add(time.Hour))
			addConnection(ownerID, "connection-dead", time.Now().Add(time.Hour))
			addConnection(ownerID, "connection-live-2", time.Now().Add(time.Hour))

			pusher.Unreachable["connection-dead"] = true
		})

		It("still delivers to the reachable connections", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pusher.Pushed).To(HaveKey("connection-live"))
			Expect(pusher.Pushed).To(HaveKey("connection-live-2"))
		})

		It("reaps the unreachable connection record", func() {
			Expect(connectionIDs(ownerID)).To(ConsistOf("connection-live", "connection-live-2"))
		})
	})

	Describe("A connection record has expired", func() {
		BeforeEach(func() {
			addConnection(ownerID, "connection-live", time.Now().Add(time.Hour))
			addConnection(ownerID, "connection-expired", time.Now().Add(-time.Minute))
		})

		It("never pushes to it and reaps it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pusher.Pushed).NotTo(HaveKey("connection-expired"))
			Expect(connectionIDs(ownerID)).To(ConsistOf("connection-live"))
		})
	})

	Describe("Another owner's connections", func() {
		BeforeEach(func() {
			addConnection(ownerID, "connection-mine", time.Now().Add(time.Hour))
			addConnection("other-owner", "connection-theirs", time.Now().Add(time.Hour))
		})

		It("never receive the notification", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pusher.Pushed).To(HaveKey("connection-mine"))
			Expect(pusher.Pushed).NotTo(HaveKey("connection-theirs"))
		})
	})

	Describe("Connection store is unavailable", func() {
		BeforeEach(func() {
			connectionStore.Unavailable = true
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
