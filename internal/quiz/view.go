package quiz

// QuestionView is a question as the learner sees it, without correct flags.
type QuestionView struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
}

// View is a read-only rendering of a session for API responses.
type View struct {
	State       State  `json:"state"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Media        *MediaItem `json:"media,omitempty"`
	MediaIndex   int        `json:"media_index"`
	MediaCount   int        `json:"media_count"`
	HasNextMedia bool       `json:"has_next_media"`
	HasPrevMedia bool       `json:"has_prev_media"`

	Question       *QuestionView `json:"question,omitempty"`
	QuestionIndex  int           `json:"question_index"`
	TotalQuestions int           `json:"total_questions"`
	SelectedAnswer *string       `json:"selected_answer"`
	AnsweredCount  int           `json:"answered_count"`
	CanSubmit      bool          `json:"can_submit"`
	// Answered marks which questions have an answer, in question order.
	Answered []bool `json:"answered"`

	Result *Result `json:"result,omitempty"`
}

func (s *Session) View() View {
	v := View{
		State:          s.state,
		MediaIndex:     s.media.Index(),
		MediaCount:     s.media.Len(),
		HasNextMedia:   s.media.HasNext(),
		HasPrevMedia:   s.media.HasPrev(),
		QuestionIndex:  s.questionIndex,
		TotalQuestions: s.TotalQuestions(),
		AnsweredCount:  s.AnsweredCount(),
		CanSubmit:      s.CanSubmit(),
	}
	if s.subCourse == nil {
		return v
	}

	v.Name = s.subCourse.Name
	v.Description = s.subCourse.Description
	if item, ok := s.media.Current(); ok {
		v.Media = &item
	}

	v.Answered = make([]bool, len(s.answers))
	for i, a := range s.answers {
		v.Answered[i] = a != nil
	}

	if v.TotalQuestions > 0 {
		q := s.subCourse.Questions[s.questionIndex]
		texts := make([]string, len(q.Answers))
		for i, a := range q.Answers {
			texts[i] = a.Text
		}
		v.Question = &QuestionView{Index: s.questionIndex, Text: q.Text, Answers: texts}
		v.SelectedAnswer = s.answers[s.questionIndex]
	}

	if s.state == StateSubmitted {
		result := s.Result()
		v.Result = &result
	}
	return v
}
