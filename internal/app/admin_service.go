package app

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/domain"
)

const (
	defaultApproveNote = "Approved by admin"
	defaultRejectNote  = "Rejected by admin"
)

// AdminService covers teacher verification and platform counters.
type AdminService struct {
	users   UserRepository
	courses CourseRepository
	log     *zap.Logger
}

func NewAdminService(users UserRepository, courses CourseRepository, log *zap.Logger) *AdminService {
	return &AdminService{users: users, courses: courses, log: log}
}

// Teachers lists teachers, optionally only those with the given status.
func (s *AdminService) Teachers(ctx context.Context, status domain.VerificationStatus) ([]domain.User, error) {
	teachers, err := s.users.ListByRole(ctx, domain.RoleTeacher)
	if err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}
	if status == "" {
		return teachers, nil
	}
	out := make([]domain.User, 0, len(teachers))
	for _, t := range teachers {
		if t.VerificationStatus == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *AdminService) ApproveTeacher(ctx context.Context, teacherID, notes string) (domain.User, error) {
	return s.setVerification(ctx, teacherID, domain.VerificationVerified, notes, defaultApproveNote)
}

func (s *AdminService) RejectTeacher(ctx context.Context, teacherID, notes string) (domain.User, error) {
	return s.setVerification(ctx, teacherID, domain.VerificationRejected, notes, defaultRejectNote)
}

func (s *AdminService) setVerification(ctx context.Context, teacherID string, status domain.VerificationStatus, notes, fallback string) (domain.User, error) {
	if strings.TrimSpace(notes) == "" {
		notes = fallback
	}
	user, err := s.users.Update(ctx, teacherID, func(u *domain.User) error {
		if !u.IsTeacher() {
			return domain.ErrTeacherNotFound
		}
		u.VerificationStatus = status
		u.VerificationNotes = notes
		return nil
	})
	if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrTeacherNotFound) {
		return domain.User{}, domain.ErrTeacherNotFound
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "saving verification")
	}
	s.log.Info("teacher verification changed", zap.String("teacher_id", teacherID), zap.String("status", string(status)))
	return user, nil
}

// Stats counts students, instructors, courses, video lessons and topics with notes.
func (s *AdminService) Stats(ctx context.Context) (domain.PlatformStats, error) {
	students, err := s.users.ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return domain.PlatformStats{}, errors.Wrap(err, "counting students")
	}
	teachers, err := s.users.ListByRole(ctx, domain.RoleTeacher)
	if err != nil {
		return domain.PlatformStats{}, errors.Wrap(err, "counting teachers")
	}
	courses, err := s.courses.List(ctx, domain.CourseFilter{})
	if err != nil {
		return domain.PlatformStats{}, errors.Wrap(err, "counting courses")
	}
	stats := domain.PlatformStats{
		Students:    len(students),
		Instructors: len(teachers),
		Courses:     len(courses),
	}
	for _, c := range courses {
		for _, ch := range c.Chapters {
			for _, t := range ch.Topics {
				if t.Video != "" {
					stats.Videos++
				}
				if t.Notes != "" {
					stats.Materials++
				}
			}
		}
	}
	return stats, nil
}
