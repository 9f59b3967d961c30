package services

import (
	"context"
	"fmt"

	recaptcha "cloud.google.com/go/recaptchaenterprise/v2/apiv1"
	"cloud.google.com/go/recaptchaenterprise/v2/apiv1/recaptchaenterprisepb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"projectboard/logging"
)

// CaptchaVerifier scores the reCAPTCHA token sent with a sign-in.
type CaptchaVerifier interface {
	Verify(ctx context.Context, req CaptchaRequest) (*AssessmentResult, error)
	Close() error
}

type CaptchaRequest struct {
	Token     string
	Action    string
	RemoteIP  string
	UserAgent string
}

type AssessmentResult struct {
	Score   float32  `json:"score"`
	Action  string   `json:"action"`
	Reasons []string `json:"reasons,omitempty"`
}

type assessmentClient interface {
	CreateAssessment(ctx context.Context, req *recaptchaenterprisepb.CreateAssessmentRequest, opts ...gax.CallOption) (*recaptchaenterprisepb.Assessment, error)
	Close() error
}

type RecaptchaConfig struct {
	ProjectID       string
	SiteKey         string
	CredentialsFile string
	MinScore        float32
}

// RecaptchaVerifier keeps one reCAPTCHA Enterprise client for the life of
// the process.
type RecaptchaVerifier struct {
	client assessmentClient
	cfg    RecaptchaConfig
}

func NewRecaptchaVerifier(ctx context.Context, cfg RecaptchaConfig) (*RecaptchaVerifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := recaptcha.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create reCAPTCHA client: %w", err)
	}
	return &RecaptchaVerifier{client: client, cfg: cfg}, nil
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, req CaptchaRequest) (*AssessmentResult, error) {
	if req.Token == "" {
		return nil, ErrCaptchaRejected
	}
	response, err := v.client.CreateAssessment(ctx, &recaptchaenterprisepb.CreateAssessmentRequest{
		Parent: fmt.Sprintf("projects/%s", v.cfg.ProjectID),
		Assessment: &recaptchaenterprisepb.Assessment{
			Event: &recaptchaenterprisepb.Event{
				Token:         req.Token,
				SiteKey:       v.cfg.SiteKey,
				UserIpAddress: req.RemoteIP,
				UserAgent:     req.UserAgent,
			},
		},
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: CAPTCHA_ASSESSMENT_FAILED, Description: createAssessment failed: %v", err)
		return nil, fmt.Errorf("create assessment: %w", err)
	}

	props := response.GetTokenProperties()
	if props == nil || !props.GetValid() {
		if props != nil {
			logging.Logger.Warnf("Event ID: CAPTCHA_TOKEN_INVALID, Description: %s", props.GetInvalidReason())
		}
		return nil, ErrCaptchaRejected
	}
	if req.Action != "" && props.GetAction() != req.Action {
		logging.Logger.Warnf("Event ID: CAPTCHA_ACTION_MISMATCH, Description: expected %s, got %s", req.Action, props.GetAction())
		return nil, ErrCaptchaRejected
	}

	result := &AssessmentResult{Action: props.GetAction()}
	if risk := response.GetRiskAnalysis(); risk != nil {
		result.Score = risk.GetScore()
		for _, reason := range risk.GetReasons() {
			result.Reasons = append(result.Reasons, reason.String())
		}
	}
	if result.Score < v.cfg.MinScore {
		logging.Logger.Warnf("Event ID: CAPTCHA_LOW_SCORE, Description: score %.2f below %.2f", result.Score, v.cfg.MinScore)
		return result, ErrCaptchaRejected
	}
	return result, nil
}

func (v *RecaptchaVerifier) Close() error {
	return v.client.Close()
}
