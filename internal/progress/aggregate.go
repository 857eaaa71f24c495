package progress

import (
	"math"

	"github.com/p-n-ai/pai-tracker/internal/catalog"
)

// TopicStat summarises completion of one topic.
type TopicStat struct {
	TopicID          string `json:"topicId"`
	TopicName        string `json:"topicName"`
	TotalQuestions   int    `json:"totalQuestions"`
	Completed        int    `json:"completed"`
	PercentCompleted int    `json:"percentCompleted"`
}

// BookmarkedQuestion is a bookmarked question with its owning topic.
type BookmarkedQuestion struct {
	QuestionView
	TopicID   string `json:"topicId"`
	TopicName string `json:"topicName"`
}

// Percent returns round(100*done/total), or 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// TopicStats computes completion per topic in catalog order. Done ids that are
// no longer questions of the topic are not counted.
func TopicStats(topics []catalog.Topic, p *Progress) []TopicStat {
	stats := make([]TopicStat, 0, len(topics))
	for _, t := range topics {
		completed := completedIn(t, p)
		stats = append(stats, TopicStat{
			TopicID:          t.ID,
			TopicName:        t.TopicName,
			TotalQuestions:   len(t.Questions),
			Completed:        completed,
			PercentCompleted: Percent(completed, len(t.Questions)),
		})
	}
	return stats
}

// TotalPercent computes completion over the whole catalog.
func TotalPercent(topics []catalog.Topic, p *Progress) int {
	var done, total int
	for _, t := range topics {
		done += completedIn(t, p)
		total += len(t.Questions)
	}
	return Percent(done, total)
}

// Bookmarks lists bookmarked questions in catalog order.
func Bookmarks(topics []catalog.Topic, p *Progress) []BookmarkedQuestion {
	out := []BookmarkedQuestion{}
	for _, view := range Merge(topics, p) {
		for _, q := range view.Questions {
			if !q.Bookmark {
				continue
			}
			out = append(out, BookmarkedQuestion{
				QuestionView: q,
				TopicID:      view.ID,
				TopicName:    view.TopicName,
			})
		}
	}
	return out
}

func completedIn(t catalog.Topic, p *Progress) int {
	tp, ok := p.Topic(t.ID)
	if !ok {
		return 0
	}
	done := toSet(tp.DoneQuestions)
	n := 0
	for id := range t.QuestionIDs() {
		if done[id] {
			n++
		}
	}
	return n
}
