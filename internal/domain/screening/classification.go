package screening

import "github.com/google/uuid"

const (
	RiskHigh      = "high-risk"
	RiskUncertain = "uncertain"
	RiskLow       = "low-risk"
)

// SubScores are the two raw classifier outputs for one video, 0..100.
type SubScores struct {
	Math int
	DL   int
}

// Combined is the floor of the mean of both sub-scores.
func (s SubScores) Combined() int {
	return (s.Math + s.DL) / 2
}

// RiskBucket maps a combined score onto its label.
func RiskBucket(score int) string {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskUncertain
	default:
		return RiskLow
	}
}

type Classification struct {
	VideoID       uuid.UUID `json:"video_id"`
	VideoFilename string    `json:"video_filename"`
	Math          int       `json:"math_classifier"`
	DL            int       `json:"dl_classifier"`
	Final         int       `json:"final_result"`
	Status        string    `json:"status"`
}

func Classify(videoID uuid.UUID, filename string, s SubScores) Classification {
	final := s.Combined()
	return Classification{
		VideoID:       videoID,
		VideoFilename: filename,
		Math:          s.Math,
		DL:            s.DL,
		Final:         final,
		Status:        RiskBucket(final),
	}
}
