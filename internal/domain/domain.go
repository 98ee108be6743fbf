package domain

import (
	"github.com/InfiniCruiser/ymca-backend/internal/domain/scores"
	"github.com/InfiniCruiser/ymca-backend/internal/domain/submissions"
)

type SubmissionStatus = submissions.Status

const (
	SubmissionStatusDraft     = submissions.StatusDraft
	SubmissionStatusSubmitted = submissions.StatusSubmitted
	SubmissionStatusLocked    = submissions.StatusLocked
)

type Submission = submissions.Submission
type Responses = submissions.Responses
type Answer = submissions.Answer
type EvidenceFile = submissions.EvidenceFile

type PerformanceCalculation = scores.PerformanceCalculation
