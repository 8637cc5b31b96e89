// internal/service/reconciler.go
package service

import (
	"strings"

	"study_wala_backend/internal/model"

	"github.com/google/uuid"
)

// reconciledPlan はカタログ照合後の結果。
// NewTopics はまだ永続化されていない新規トピック (プランと同一トランザクションで書く)。
type reconciledPlan struct {
	SubjectRefs    []uuid.UUID
	TopicRefs      []uuid.UUID
	NewTopics      []*model.Topic
	ResolvedTopics []*model.Topic // 既存+新規をプラン参照順に並べたもの (レスポンス構築用)
	EstimatedTotal int
}

// reconcilePlan はParsedPlanの科目・トピック参照をユーザーのカタログに対して解決する。
// subjects / topics はあらかじめ一括読み込みされたユーザー所有の行。
// 未解決の科目は UnknownSubject、所有者不一致は OwnershipViolation で中断する
// (読み込みクエリ自体がユーザーでスコープされているため、後者はストア破損時のみ発火する)。
// 未解決のトピックは completed=false の新規Topicとして作成対象に積む。
func reconcilePlan(parsed *ParsedPlan, userID uuid.UUID, subjects []*model.Subject, topics []*model.Topic) (*reconciledPlan, error) {
	idx := newSubjectIndex(subjects)

	// 既存トピックを「科目ID+小文字名」で引けるようにする
	topicsByKey := make(map[string]*model.Topic, len(topics))
	for _, t := range topics {
		topicsByKey[topicKey(t.SubjectID, t.Name)] = t
	}

	rec := &reconciledPlan{}
	seenSubjects := make(map[uuid.UUID]bool)
	for _, ref := range parsed.Subjects {
		subject := idx.resolve(ref.ID, ref.Name)
		if subject == nil {
			return nil, model.NewAppError("UNKNOWN_SUBJECT", "指定された科目が見つかりません。", "subjects", model.ErrUnknownSubject)
		}
		if subject.UserID != userID {
			return nil, model.NewAppError("OWNERSHIP_VIOLATION", "他のユーザーの科目は参照できません。", "subjects", model.ErrOwnershipViolation)
		}
		// 順序を保った重複排除
		if !seenSubjects[subject.SubjectID] {
			seenSubjects[subject.SubjectID] = true
			rec.SubjectRefs = append(rec.SubjectRefs, subject.SubjectID)
		}
	}

	seenTopics := make(map[uuid.UUID]bool)
	for _, ref := range parsed.Topics {
		subject := idx.resolve(ref.SubjectID, ref.SubjectName)
		if subject == nil {
			return nil, model.NewAppError("UNKNOWN_SUBJECT", "トピックの参照先科目が見つかりません。", "topics", model.ErrUnknownSubject)
		}
		if subject.UserID != userID {
			return nil, model.NewAppError("OWNERSHIP_VIOLATION", "他のユーザーの科目は参照できません。", "topics", model.ErrOwnershipViolation)
		}
		// subjects 配列に載らずトピックからのみ参照された科目も参照集合に含める
		// (全トピックの参照先科目が SubjectRefs に解決できる状態を保つ)
		if !seenSubjects[subject.SubjectID] {
			seenSubjects[subject.SubjectID] = true
			rec.SubjectRefs = append(rec.SubjectRefs, subject.SubjectID)
		}

		topic, exists := topicsByKey[topicKey(subject.SubjectID, ref.Name)]
		if !exists {
			topic = &model.Topic{
				TopicID:        uuid.New(),
				UserID:         userID,
				SubjectID:      subject.SubjectID,
				Name:           ref.Name,
				EstimatedHours: ref.EstimatedHours,
				Completed:      false,
			}
			topicsByKey[topicKey(subject.SubjectID, ref.Name)] = topic
			rec.NewTopics = append(rec.NewTopics, topic)
		}
		if !seenTopics[topic.TopicID] {
			seenTopics[topic.TopicID] = true
			rec.TopicRefs = append(rec.TopicRefs, topic.TopicID)
			rec.ResolvedTopics = append(rec.ResolvedTopics, topic)
			rec.EstimatedTotal += topic.EstimatedHours
		}
	}

	return rec, nil
}

func topicKey(subjectID uuid.UUID, name string) string {
	return subjectID.String() + "/" + strings.ToLower(strings.TrimSpace(name))
}
