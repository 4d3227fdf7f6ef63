package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/educenter-api/internal/models"
)

func newLessonService(store *memStore) *LessonService {
	return NewLessonService(memLessons{s: store}, &memGroups{s: store}, nil, nil)
}

func TestLessonServiceCreateOwnership(t *testing.T) {
	store := newLessonStore()
	svc := newLessonService(store)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, CreateLessonRequest{GroupID: groupG, Topic: " Week 2 "}, ownerTeacher)
	require.NoError(t, err)
	assert.Equal(t, "Week 2", lesson.Topic)
	require.NotNil(t, lesson.TeacherID)
	assert.Nil(t, lesson.UserID)

	staffLesson, err := svc.Create(ctx, CreateLessonRequest{GroupID: groupG, Topic: "Makeup"}, adminActor)
	require.NoError(t, err)
	require.NotNil(t, staffLesson.UserID)
	assert.Equal(t, "user-admin", *staffLesson.UserID)

	_, err = svc.Create(ctx, CreateLessonRequest{GroupID: groupG, Topic: "Hijack"}, otherTeacher)
	assert.Equal(t, "FORBIDDEN", errCode(err))

	_, err = svc.Create(ctx, CreateLessonRequest{GroupID: missingID, Topic: "Nope"}, adminActor)
	assert.Equal(t, "group not found", errMessage(err))

	_, err = svc.Create(ctx, CreateLessonRequest{GroupID: "G", Topic: "Nope"}, adminActor)
	assert.Equal(t, "VALIDATION_ERROR", errCode(err))
	assert.Len(t, store.lessons, 3)
}

func TestLessonServiceDeleteTwice(t *testing.T) {
	store := newLessonStore()
	svc := newLessonService(store)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, lessonL))
	assert.Equal(t, models.StatusInactive, store.lessons[lessonL].Status)

	err := svc.Delete(ctx, lessonL)
	assert.Equal(t, "BAD_REQUEST", errCode(err))
	assert.Equal(t, "lesson already deleted", errMessage(err))

	_, err = svc.Get(ctx, lessonL, adminActor)
	assert.Equal(t, "lesson not found", errMessage(err))

	archived, _, err := svc.Archive(ctx, LessonFilter{}, adminActor)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestLessonServiceListScopesTeachers(t *testing.T) {
	store := newLessonStore()
	store.addTeacher(teacherB, models.StatusActive)
	store.addGroup(models.Group{ID: groupH, Name: "Writing", RoomID: roomR, CourseID: course1h, TeacherID: teacherB, StartTime: "10:00", WeekDays: models.WeekDays{models.Friday}})
	store.lessons[lessonM] = &models.Lesson{ID: lessonM, GroupID: groupH, Topic: "Essay", Status: models.StatusActive}
	svc := newLessonService(store)

	mine, _, err := svc.List(context.Background(), LessonFilter{}, ownerTeacher)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, lessonL, mine[0].ID)

	all, pagination, err := svc.List(context.Background(), LessonFilter{}, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, pagination.TotalCount)

	_, err = svc.Get(context.Background(), lessonM, ownerTeacher)
	assert.Equal(t, "not your lesson", errMessage(err))
}
