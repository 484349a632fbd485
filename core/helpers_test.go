package core

import "time"

// seedMessages inserts messages through the store directly, bypassing the
// service, so tests can control CreatedAt and Active.
func seedMessages(f *MessageFixture, messages ...Message) []Message {
	inserted := make([]Message, 0, len(messages))
	for _, m := range messages {
		stored, err := f.store.Insert(f.ctx, m)
		if err != nil {
			f.t.Fatal(err)
		}
		inserted = append(inserted, stored)
	}
	return inserted
}

func activeMessage(content, author string) Message {
	return Message{
		Content:   content,
		Author:    author,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}
}

func daysAgo(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
