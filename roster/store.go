package roster

import (
	"context"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
)

// Store is the roster view of the storage layer.
type Store interface {
	CreateParent(ctx context.Context, p *Parent) error
	GetParent(ctx context.Context, parentID id.ParentID) (*Parent, error)
	ListParents(ctx context.Context) ([]*Parent, error)
	UpdateParent(ctx context.Context, p *Parent) error

	CreateStudent(ctx context.Context, s *Student) error
	GetStudent(ctx context.Context, studentID id.StudentID) (*Student, error)
	ListStudentsByParent(ctx context.Context, parentID id.ParentID) ([]*Student, error)
	UpdateStudent(ctx context.Context, s *Student) error

	CreateTutor(ctx context.Context, t *Tutor) error
	GetTutor(ctx context.Context, tutorID id.TutorID) (*Tutor, error)
	ListTutors(ctx context.Context) ([]*Tutor, error)
	UpdateTutor(ctx context.Context, t *Tutor) error
}
