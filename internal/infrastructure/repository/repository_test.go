package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/repository"
	"github.com/waste3d/learning-platform/internal/testutil"
)

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.User{Name: "A", Email: "A@Example.com", Password: "h", Role: domain.RoleStudent}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, &domain.User{Name: "B", Email: "a@example.com", Password: "h", Role: domain.RoleStudent})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	u, err := repo.GetByEmail(ctx, " A@EXAMPLE.COM ")
	if err != nil || u.Name != "A" {
		t.Fatalf("lookup by email: %v %+v", err, u)
	}
	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserRepositorySetDisabled(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	u := testutil.NewUser(t, db, domain.RoleStudent)

	if err := repo.SetDisabled(ctx, u.ID, true, u.CreatedAt); err != nil {
		t.Fatalf("disable: %v", err)
	}
	got, _ := repo.GetByID(ctx, u.ID)
	if !got.IsDeleted || got.DisabledAt == nil {
		t.Fatalf("user not disabled: %+v", got)
	}
	if err := repo.SetDisabled(ctx, u.ID, false, u.CreatedAt); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ = repo.GetByID(ctx, u.ID)
	if got.IsDeleted || got.DisabledAt != nil {
		t.Fatalf("user not restored: %+v", got)
	}
}

func TestLessonCounterConcurrent(t *testing.T) {
	db := testutil.NewDB(t)
	lessons := repository.NewLessonRepository(db)
	courses := repository.NewCourseRepository(db)
	ctx := context.Background()

	teacher := testutil.NewUser(t, db, domain.RoleTeacher)
	course := testutil.NewCourse(t, db, teacher.ID, true)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- lessons.Create(ctx, &domain.Lesson{CourseID: course.ID, Title: "L", Order: i, IsPublished: true})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("create lesson: %v", err)
		}
	}

	got, err := courses.GetByID(ctx, course.ID)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if got.TotalLessons != n {
		t.Fatalf("totalLessons = %d, want %d", got.TotalLessons, n)
	}

	list, _ := lessons.ListByCourse(ctx, course.ID, true)
	for _, l := range list[:3] {
		if err := lessons.Delete(ctx, &l); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}
	got, _ = courses.GetByID(ctx, course.ID)
	if got.TotalLessons != n-3 {
		t.Fatalf("totalLessons after delete = %d, want %d", got.TotalLessons, n-3)
	}
}

func TestLessonCreateForMissingCourseRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	lessons := repository.NewLessonRepository(db)
	ctx := context.Background()
	courseID := uuid.New()

	err := lessons.Create(ctx, &domain.Lesson{CourseID: courseID, Title: "orphan"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, _ := lessons.ListByCourse(ctx, courseID, false)
	if len(list) != 0 {
		t.Fatalf("orphan lesson persisted: %+v", list)
	}
}

func TestQuizCounterNeverNegative(t *testing.T) {
	db := testutil.NewDB(t)
	quizzes := repository.NewQuizRepository(db)
	courses := repository.NewCourseRepository(db)
	ctx := context.Background()

	teacher := testutil.NewUser(t, db, domain.RoleTeacher)
	course := testutil.NewCourse(t, db, teacher.ID, true)

	q := &domain.Quiz{CourseID: course.ID, Title: "Q"}
	if err := quizzes.Create(ctx, q); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	// Счетчик рассинхронизирован вручную
	db.Model(&domain.Course{}).Where("id = ?", course.ID).UpdateColumn("total_quizzes", 0)

	if err := quizzes.Delete(ctx, q); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := courses.GetByID(ctx, course.ID)
	if got.TotalQuizzes != 0 {
		t.Fatalf("totalQuizzes = %d, want 0", got.TotalQuizzes)
	}
	if err := quizzes.Delete(ctx, q); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestCourseTogglePublishAndList(t *testing.T) {
	db := testutil.NewDB(t)
	courses := repository.NewCourseRepository(db)
	ctx := context.Background()
	teacher := testutil.NewUser(t, db, domain.RoleTeacher)

	draft := testutil.NewCourse(t, db, teacher.ID, false)
	other := &domain.Course{Title: "Rust", Description: "systems", Category: "programming", TeacherID: teacher.ID, IsPublished: true, Tags: []string{"rust", "systems"}}
	if err := courses.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, _ := courses.ListPublished(ctx, domain.CourseFilter{})
	if len(list) != 1 || list[0].ID != other.ID {
		t.Fatalf("unexpected catalogue %+v", list)
	}

	toggled, err := courses.TogglePublish(ctx, draft.ID)
	if err != nil || !toggled.IsPublished {
		t.Fatalf("toggle: %v %+v", err, toggled)
	}
	list, _ = courses.ListPublished(ctx, domain.CourseFilter{Search: "GO"})
	if len(list) != 1 || list[0].ID != draft.ID {
		t.Fatalf("search: unexpected %+v", list)
	}
	list, _ = courses.ListPublished(ctx, domain.CourseFilter{Tags: []string{"rust"}})
	if len(list) != 1 || list[0].ID != other.ID {
		t.Fatalf("tags: unexpected %+v", list)
	}

	mine, _ := courses.ListByTeacher(ctx, teacher.ID)
	if len(mine) != 2 {
		t.Fatalf("teacher courses = %d, want 2", len(mine))
	}
}

func TestCourseDeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	courses := repository.NewCourseRepository(db)
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	ctx := context.Background()

	teacher := testutil.NewUser(t, db, domain.RoleTeacher)
	student := testutil.NewUser(t, db, domain.RoleStudent)
	course := testutil.NewCourse(t, db, teacher.ID, true)

	lesson := &domain.Lesson{CourseID: course.ID, Title: "L1", IsPublished: true}
	if err := lessons.Create(ctx, lesson); err != nil {
		t.Fatalf("lesson: %v", err)
	}
	e := &domain.Enrollment{StudentID: student.ID, CourseID: course.ID}
	if err := enrollments.Create(ctx, e); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := enrollments.CompleteLesson(ctx, e.ID, lesson.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := courses.Delete(ctx, course.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := lessons.GetByID(ctx, lesson.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("lesson survived: %v", err)
	}
	if _, err := enrollments.GetByID(ctx, e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("enrollment survived: %v", err)
	}
	var marks int64
	db.Model(&domain.CompletedLesson{}).Count(&marks)
	if marks != 0 {
		t.Fatalf("completed lessons survived: %d", marks)
	}
	if err := courses.Delete(ctx, course.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestEnrollmentDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	enrollments := repository.NewEnrollmentRepository(db)
	ctx := context.Background()

	teacher := testutil.NewUser(t, db, domain.RoleTeacher)
	student := testutil.NewUser(t, db, domain.RoleStudent)
	course := testutil.NewCourse(t, db, teacher.ID, true)

	if err := enrollments.Create(ctx, &domain.Enrollment{StudentID: student.ID, CourseID: course.ID}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	err := enrollments.Create(ctx, &domain.Enrollment{StudentID: student.ID, CourseID: course.ID})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	found, err := enrollments.FindByStudentAndCourse(ctx, student.ID, course.ID)
	if err != nil || found == nil {
		t.Fatalf("find: %v %+v", err, found)
	}
	none, err := enrollments.FindByStudentAndCourse(ctx, student.ID, uuid.New())
	if err != nil || none != nil {
		t.Fatalf("expected nil, got %v %+v", err, none)
	}
}

func TestCompleteLessonIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	ctx := context.Background()

	teacher := testutil.NewUser(t, db, domain.RoleTeacher)
	student := testutil.NewUser(t, db, domain.RoleStudent)
	course := testutil.NewCourse(t, db, teacher.ID, true)

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		l := &domain.Lesson{CourseID: course.ID, Title: "L", Order: i, IsPublished: true}
		if err := lessons.Create(ctx, l); err != nil {
			t.Fatalf("lesson: %v", err)
		}
		ids = append(ids, l.ID)
	}
	e := &domain.Enrollment{StudentID: student.ID, CourseID: course.ID}
	if err := enrollments.Create(ctx, e); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	got, err := enrollments.CompleteLesson(ctx, e.ID, ids[0])
	if err != nil || got.Progress != 25 {
		t.Fatalf("first completion: %v progress=%v", err, got)
	}
	got, err = enrollments.CompleteLesson(ctx, e.ID, ids[0])
	if err != nil || got.Progress != 25 || len(got.CompletedLessons) != 1 {
		t.Fatalf("repeat completion changed state: %v %+v", err, got)
	}
	got, _ = enrollments.CompleteLesson(ctx, e.ID, ids[1])
	if got.Progress != 50 {
		t.Fatalf("progress = %v, want 50", got.Progress)
	}

	// Новые уроки уменьшают долю пройденного
	for i := 0; i < 4; i++ {
		if err := lessons.Create(ctx, &domain.Lesson{CourseID: course.ID, Title: "extra", IsPublished: true}); err != nil {
			t.Fatalf("lesson: %v", err)
		}
	}
	got, _ = enrollments.CompleteLesson(ctx, e.ID, ids[2])
	if got.Progress != 37.5 {
		t.Fatalf("progress = %v, want 37.5 (3 of 8)", got.Progress)
	}

	list, err := enrollments.ListByStudent(ctx, student.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	if list[0].Course == nil || list[0].Course.ID != course.ID || len(list[0].CompletedLessons) != 3 {
		t.Fatalf("unexpected enrollment view %+v", list[0])
	}
}

func TestCompleteLessonRecomputesAfterCourseGrows(t *testing.T) {
	db := testutil.NewDB(t)
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	ctx := context.Background()

	teacher := testutil.NewUser(t, db, domain.RoleTeacher)
	student := testutil.NewUser(t, db, domain.RoleStudent)
	course := testutil.NewCourse(t, db, teacher.ID, true)

	addLesson := func(title string) uuid.UUID {
		l := &domain.Lesson{CourseID: course.ID, Title: title, IsPublished: true}
		if err := lessons.Create(ctx, l); err != nil {
			t.Fatalf("lesson: %v", err)
		}
		return l.ID
	}

	first := addLesson("L1")
	e := &domain.Enrollment{StudentID: student.ID, CourseID: course.ID}
	if err := enrollments.Create(ctx, e); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	got, err := enrollments.CompleteLesson(ctx, e.ID, first)
	if err != nil || got.Progress != 100 {
		t.Fatalf("single lesson course: %v %+v", err, got)
	}

	second := addLesson("L2")
	addLesson("L3")
	addLesson("L4")

	got, err = enrollments.CompleteLesson(ctx, e.ID, second)
	if err != nil {
		t.Fatalf("complete L2: %v", err)
	}
	if got.Progress != 50 {
		t.Fatalf("progress = %v, want 50 (2 of 4)", got.Progress)
	}
}
