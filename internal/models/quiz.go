package models

// ScoringDimension is one of the nine fixed scoring axes. The dimensions are
// partitioned into three mutually exclusive groups: element, modality and
// orientation.
type ScoringDimension string

const (
	// Element group
	DimensionFire  ScoringDimension = "fire"
	DimensionWater ScoringDimension = "water"
	DimensionAir   ScoringDimension = "air"
	DimensionEarth ScoringDimension = "earth"

	// Modality group
	DimensionCardinal ScoringDimension = "cardinal"
	DimensionFixed    ScoringDimension = "fixed"
	DimensionMutable  ScoringDimension = "mutable"

	// Orientation group
	DimensionSolar ScoringDimension = "solar"
	DimensionLunar ScoringDimension = "lunar"
)

// Canonical group orders. Tie-breaking always walks these slices front to
// back, so the earliest dimension wins ties.
var (
	ElementDimensions     = []ScoringDimension{DimensionFire, DimensionWater, DimensionAir, DimensionEarth}
	ModalityDimensions    = []ScoringDimension{DimensionCardinal, DimensionFixed, DimensionMutable}
	OrientationDimensions = []ScoringDimension{DimensionSolar, DimensionLunar}
)

// IsValidDimension reports whether key names one of the nine dimensions.
func IsValidDimension(key ScoringDimension) bool {
	switch key {
	case DimensionFire, DimensionWater, DimensionAir, DimensionEarth,
		DimensionCardinal, DimensionFixed, DimensionMutable,
		DimensionSolar, DimensionLunar:
		return true
	}
	return false
}

// ScoreVector holds the cumulative score for every dimension. All nine keys
// are always present; the zero value is a freshly initialized vector.
type ScoreVector struct {
	Fire     int `json:"fire"`
	Water    int `json:"water"`
	Air      int `json:"air"`
	Earth    int `json:"earth"`
	Cardinal int `json:"cardinal"`
	Fixed    int `json:"fixed"`
	Mutable  int `json:"mutable"`
	Solar    int `json:"solar"`
	Lunar    int `json:"lunar"`
}

// Get returns the score for a dimension. Unknown keys read as 0.
func (v ScoreVector) Get(dim ScoringDimension) int {
	switch dim {
	case DimensionFire:
		return v.Fire
	case DimensionWater:
		return v.Water
	case DimensionAir:
		return v.Air
	case DimensionEarth:
		return v.Earth
	case DimensionCardinal:
		return v.Cardinal
	case DimensionFixed:
		return v.Fixed
	case DimensionMutable:
		return v.Mutable
	case DimensionSolar:
		return v.Solar
	case DimensionLunar:
		return v.Lunar
	}
	return 0
}

// Add increments a dimension in place. Unknown keys are ignored.
func (v *ScoreVector) Add(dim ScoringDimension, delta int) {
	switch dim {
	case DimensionFire:
		v.Fire += delta
	case DimensionWater:
		v.Water += delta
	case DimensionAir:
		v.Air += delta
	case DimensionEarth:
		v.Earth += delta
	case DimensionCardinal:
		v.Cardinal += delta
	case DimensionFixed:
		v.Fixed += delta
	case DimensionMutable:
		v.Mutable += delta
	case DimensionSolar:
		v.Solar += delta
	case DimensionLunar:
		v.Lunar += delta
	}
}

// Answer is one selectable option of a question. Scoring is a partial map of
// dimension deltas; keys outside the nine dimensions are tolerated in the
// source document and dropped during accumulation (quiz content is trusted
// reference data, not user input).
type Answer struct {
	ID      string         `json:"id" validate:"required"`
	Text    string         `json:"text" validate:"required"`
	Scoring map[string]int `json:"scoring,omitempty"`
}

// Question is an ordered quiz item. Questions are immutable reference data,
// loaded once and shared read-only across sessions.
type Question struct {
	ID              string   `json:"id" validate:"required"`
	Order           int      `json:"order" validate:"required,min=1"`
	Headline        string   `json:"headline"`
	QuestionText    string   `json:"question_text" validate:"required"`
	QuestionSubtext string   `json:"question_subtext"`
	Answers         []Answer `json:"answers" validate:"required,min=2,max=4,dive"`
}

// AnswerByID returns the answer with the given id, if it belongs to q.
func (q *Question) AnswerByID(answerID string) (*Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].ID == answerID {
			return &q.Answers[i], true
		}
	}
	return nil, false
}

// Stripped returns a copy of the question with all scoring data removed,
// suitable for client payloads.
func (q *Question) Stripped() Question {
	out := *q
	out.Answers = make([]Answer, len(q.Answers))
	for i, a := range q.Answers {
		out.Answers[i] = Answer{ID: a.ID, Text: a.Text}
	}
	return out
}

// MatchingCriterion names one dimension and the minimum score a candidate
// vector must reach on it.
type MatchingCriterion struct {
	Key      ScoringDimension `json:"key" validate:"required,scoring_dimension"`
	MinScore int              `json:"min_score"`
}

// MatchingCriteria are a profile's three ranked thresholds. Primary weighs
// heaviest during matching, tertiary lightest.
type MatchingCriteria struct {
	Primary   MatchingCriterion `json:"primary" validate:"required"`
	Secondary MatchingCriterion `json:"secondary" validate:"required"`
	Tertiary  MatchingCriterion `json:"tertiary" validate:"required"`
}

// TradingCardVisual carries opaque display styling for a profile card.
type TradingCardVisual struct {
	Background  string `json:"background"`
	AccentColor string `json:"accent_color"`
	Symbol      string `json:"symbol"`
	BorderStyle string `json:"border_style"`
}

// Profile is a candidate archetype result.
type Profile struct {
	ID                string            `json:"id" validate:"required"`
	ArchetypeName     string            `json:"archetype_name" validate:"required"`
	ArchetypeSubtitle string            `json:"archetype_subtitle"`
	PlanetAssociation string            `json:"planet_association"`
	Element           ScoringDimension  `json:"element" validate:"required,element_key"`
	Modality          ScoringDimension  `json:"modality" validate:"required,modality_key"`
	Orientation       ScoringDimension  `json:"orientation" validate:"required,orientation_key"`
	MatchingCriteria  MatchingCriteria  `json:"matching_criteria" validate:"required"`
	Headline          string            `json:"headline"`
	Description       string            `json:"description"`
	Strengths         []string          `json:"strengths"`
	GrowthEdges       []string          `json:"growth_edges"`
	CosmicInsight     string            `json:"cosmic_insight"`
	TradingCardVisual TradingCardVisual `json:"trading_card_visual"`
	BridgeText        string            `json:"bridge_text"`
	CTAText           string            `json:"cta_text"`
	CTAURL            string            `json:"cta_url"`
}

// FallbackProfile is the catch-all result used when no profile matches
// confidently. It carries no matching criteria.
type FallbackProfile struct {
	ID                string `json:"id" validate:"required"`
	ArchetypeName     string `json:"archetype_name" validate:"required"`
	ArchetypeSubtitle string `json:"archetype_subtitle"`
	Headline          string `json:"headline"`
	Description       string `json:"description"`
	BridgeText        string `json:"bridge_text"`
	CTAText           string `json:"cta_text"`
	CTAURL            string `json:"cta_url"`
}

// ProfileKind discriminates the two result variants.
type ProfileKind string

const (
	ProfileKindArchetype ProfileKind = "profile"
	ProfileKindFallback  ProfileKind = "fallback"
)

// MatchedProfile is the tagged result of profile matching: exactly one of
// Archetype or Fallback is set, according to Kind.
type MatchedProfile struct {
	Kind      ProfileKind      `json:"kind"`
	Archetype *Profile         `json:"profile,omitempty"`
	Fallback  *FallbackProfile `json:"fallback_profile,omitempty"`
}

// MatchedArchetype wraps a full profile.
func MatchedArchetype(p *Profile) MatchedProfile {
	return MatchedProfile{Kind: ProfileKindArchetype, Archetype: p}
}

// MatchedFallback wraps the fallback profile.
func MatchedFallback(f *FallbackProfile) MatchedProfile {
	return MatchedProfile{Kind: ProfileKindFallback, Fallback: f}
}

// ID returns the identifier of whichever variant is set.
func (m MatchedProfile) ID() string {
	if m.Kind == ProfileKindFallback {
		if m.Fallback != nil {
			return m.Fallback.ID
		}
		return ""
	}
	if m.Archetype != nil {
		return m.Archetype.ID
	}
	return ""
}

// IsFallback reports whether the fallback variant is set.
func (m MatchedProfile) IsFallback() bool {
	return m.Kind == ProfileKindFallback
}

// Disclaimer is the legal text attached to the quiz.
type Disclaimer struct {
	Short       string `json:"short"`
	Full        string `json:"full"`
	DisplayMode string `json:"display_mode"`
}

// DesignTokens carry opaque theming values passed through to clients.
type DesignTokens struct {
	BgPrimary   string `json:"bg_primary"`
	BgSurface   string `json:"bg_surface"`
	GoldPrimary string `json:"gold_primary"`
	GoldMuted   string `json:"gold_muted"`
	EmeraldDeep string `json:"emerald_deep"`
	TextIvory   string `json:"text_ivory"`
	TextMist    string `json:"text_mist"`
}

// QuizMeta describes the quiz itself.
type QuizMeta struct {
	ID                       string       `json:"id" validate:"required"`
	Version                  string       `json:"version"`
	Title                    string       `json:"title" validate:"required"`
	Subtitle                 string       `json:"subtitle"`
	Description              string       `json:"description"`
	EstimatedDurationSeconds int          `json:"estimated_duration_seconds"`
	DesignTokens             DesignTokens `json:"design_tokens"`
	Disclaimer               Disclaimer   `json:"disclaimer"`
}

// QuizDefinition is the full quiz document: metadata, ordered questions, the
// profile catalog and the fallback profile. It is loaded once, validated and
// treated as immutable for the life of the process.
type QuizDefinition struct {
	QuizMeta        QuizMeta        `json:"quiz_meta" validate:"required"`
	Questions       []Question      `json:"questions" validate:"required,min=1,dive"`
	Profiles        []Profile       `json:"profiles" validate:"required,dive"`
	FallbackProfile FallbackProfile `json:"fallback_profile" validate:"required"`
}

// QuestionByID returns the question with the given id.
func (d *QuizDefinition) QuestionByID(questionID string) (*Question, bool) {
	for i := range d.Questions {
		if d.Questions[i].ID == questionID {
			return &d.Questions[i], true
		}
	}
	return nil, false
}

// QuestionByOrder returns the question at a 1-based order position.
func (d *QuizDefinition) QuestionByOrder(order int) (*Question, bool) {
	for i := range d.Questions {
		if d.Questions[i].Order == order {
			return &d.Questions[i], true
		}
	}
	return nil, false
}

// TotalQuestions returns the question count of the definition.
func (d *QuizDefinition) TotalQuestions() int {
	return len(d.Questions)
}
