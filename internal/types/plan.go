package types

import "time"

// PlanLimits are the functional limits that gate course generation requests.
type PlanLimits struct {
	MaxTopics        int      `json:"maxTopics"`
	MaxSubtopics     int      `json:"maxSubtopics"`
	CourseTypes      []string `json:"courseTypes"`
	Languages        []string `json:"languages"`
	UnlimitedCourses bool     `json:"unlimitedCourses"`
	AITeacherChat    bool     `json:"aiTeacherChat"`
	VideoCourses     bool     `json:"videoCourses"`
	TheoryCourses    bool     `json:"theoryCourses"`
	ImageCourses     bool     `json:"imageCourses"`
}

// FreePlanLimits is the tier every lookup degrades to when no plan data is available.
func FreePlanLimits() PlanLimits {
	return PlanLimits{
		MaxSubtopics:     5,
		MaxTopics:        4,
		CourseTypes:      []string{CourseTypeTextImage},
		Languages:        []string{"English"},
		UnlimitedCourses: false,
		AITeacherChat:    true,
		VideoCourses:     false,
		TheoryCourses:    true,
		ImageCourses:     true,
	}
}

const (
	BillingMonthly  = "monthly"
	BillingYearly   = "yearly"
	BillingLifetime = "lifetime"
)

// PlanSettings is one row per plan key.
type PlanSettings struct {
	PlanType      string     `json:"planType" validate:"required"`
	Name          string     `json:"planName" validate:"required"`
	Price         float64    `json:"price" validate:"min=0"`
	BillingPeriod string     `json:"billingPeriod"`
	Features      []string   `json:"features"`
	Limits        PlanLimits `json:"limits"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// DefaultPlanSettings are seeded when the plan table is empty.
func DefaultPlanSettings() []PlanSettings {
	free := FreePlanLimits()
	return []PlanSettings{
		{
			PlanType:      PlanFree,
			Name:          "Free",
			Price:         0,
			BillingPeriod: BillingLifetime,
			Features:      []string{"Generate 5 Sub-Topics", "Lifetime access", "Theory & Image Course", "Ai Teacher Chat"},
			Limits:        free,
		},
		{
			PlanType:      PlanMonthly,
			Name:          "Monthly Plan",
			Price:         9,
			BillingPeriod: BillingMonthly,
			Features:      []string{"Generate 10 Sub-Topics", "1 Month Access", "Theory & Image Course", "Ai Teacher Chat", "Course In 23+ Languages", "Create Unlimited Course", "Video & Theory Course"},
			Limits: PlanLimits{
				MaxTopics:        10,
				MaxSubtopics:     10,
				CourseTypes:      []string{CourseTypeTextImage, CourseTypeVideoText},
				Languages:        SupportedLanguages(),
				UnlimitedCourses: true,
				AITeacherChat:    true,
				VideoCourses:     true,
				TheoryCourses:    true,
				ImageCourses:     true,
			},
		},
		{
			PlanType:      PlanYearly,
			Name:          "Yearly Plan",
			Price:         99,
			BillingPeriod: BillingYearly,
			Features:      []string{"Generate 10 Sub-Topics", "1 Year Access", "Theory & Image Course", "Ai Teacher Chat", "Course In 23+ Languages", "Create Unlimited Course", "Video & Theory Course"},
			Limits: PlanLimits{
				MaxTopics:        10,
				MaxSubtopics:     10,
				CourseTypes:      []string{CourseTypeTextImage, CourseTypeVideoText},
				Languages:        SupportedLanguages(),
				UnlimitedCourses: true,
				AITeacherChat:    true,
				VideoCourses:     true,
				TheoryCourses:    true,
				ImageCourses:     true,
			},
		},
	}
}

// SupportedLanguages lists the generation languages paid plans unlock.
func SupportedLanguages() []string {
	return []string{
		"English", "Arabic", "Bengali", "Bulgarian", "Chinese", "Croatian", "Czech", "Danish", "Dutch",
		"Estonian", "Finnish", "French", "German", "Greek", "Hebrew", "Hindi", "Hungarian", "Indonesian",
		"Italian", "Japanese", "Korean", "Latvian", "Lithuanian", "Norwegian", "Polish", "Portuguese",
		"Romanian", "Russian", "Serbian", "Slovak", "Slovenian", "Spanish", "Swahili", "Swedish", "Thai",
		"Turkish", "Ukrainian", "Vietnamese",
	}
}

// UserPlanLimitsRequest names the user whose limits are wanted; empty means the caller.
type UserPlanLimitsRequest struct {
	UserID string `json:"userId"`
}

type UserPlanLimitsResponse struct {
	Success bool       `json:"success"`
	Limits  PlanLimits `json:"limits"`
}
