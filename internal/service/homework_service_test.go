package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/educenter-api/internal/models"
)

func newHomeworkService(store *memStore) (*memHomework, *HomeworkService) {
	repo := &memHomework{s: store}
	return repo, NewHomeworkService(repo, memLessons{s: store}, &memGroups{s: store}, nil, nil)
}

func TestHomeworkServiceCreateAttributesActor(t *testing.T) {
	store := newLessonStore()
	repo, svc := newHomeworkService(store)
	ctx := context.Background()

	file := "essays/week-1.pdf"
	byTeacher, err := svc.Create(ctx, CreateHomeworkRequest{LessonID: lessonL, GroupID: groupG, Title: " Essay draft ", File: &file}, ownerTeacher)
	require.NoError(t, err)
	assert.Equal(t, "Essay draft", byTeacher.Title)
	assert.Equal(t, groupG, byTeacher.GroupID)
	require.NotNil(t, byTeacher.TeacherID)
	assert.Equal(t, teacherA, *byTeacher.TeacherID)
	assert.Nil(t, byTeacher.UserID)
	assert.Equal(t, &file, byTeacher.File)

	byStaff, err := svc.Create(ctx, CreateHomeworkRequest{LessonID: lessonL, Title: "Vocabulary list"}, adminActor)
	require.NoError(t, err)
	require.NotNil(t, byStaff.UserID)
	assert.Equal(t, "user-admin", *byStaff.UserID)
	assert.Nil(t, byStaff.TeacherID)
	assert.Equal(t, groupG, byStaff.GroupID, "group is taken from the lesson")
	assert.Len(t, repo.items, 2)
}

func TestHomeworkServiceCreateRejections(t *testing.T) {
	store := newLessonStore()
	store.lessons[lessonM] = &models.Lesson{ID: lessonM, GroupID: groupG, Topic: "Cancelled", Status: models.StatusInactive}
	repo, svc := newHomeworkService(store)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     CreateHomeworkRequest
		actor   models.Actor
		code    string
		message string
	}{
		{"unknown lesson", CreateHomeworkRequest{LessonID: missingID, Title: "x"}, adminActor, "NOT_FOUND", "lesson not found"},
		{"deleted lesson", CreateHomeworkRequest{LessonID: lessonM, Title: "x"}, adminActor, "NOT_FOUND", "lesson not found"},
		{"group mismatch", CreateHomeworkRequest{LessonID: lessonL, GroupID: groupH, Title: "x"}, adminActor, "BAD_REQUEST", "lesson does not belong to this group"},
		{"other teacher", CreateHomeworkRequest{LessonID: lessonL, Title: "x"}, otherTeacher, "FORBIDDEN", "not your lesson"},
		{"malformed lesson id", CreateHomeworkRequest{LessonID: "L", Title: "x"}, adminActor, "VALIDATION_ERROR", "invalid homework payload: field lessonid failed on uuid"},
		{"missing title", CreateHomeworkRequest{LessonID: lessonL}, adminActor, "VALIDATION_ERROR", "invalid homework payload: field title failed on required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req, tc.actor)
			require.Error(t, err)
			assert.Equal(t, tc.code, errCode(err))
			assert.Equal(t, tc.message, errMessage(err))
		})
	}
	assert.Empty(t, repo.items)
}

func TestHomeworkServiceListScopesTeachers(t *testing.T) {
	store := newLessonStore()
	store.addGroup(models.Group{ID: groupH, Name: "Writing", RoomID: roomR, CourseID: course1h, TeacherID: teacherB, StartTime: "10:00", WeekDays: models.WeekDays{models.Friday}})
	store.lessons[lessonM] = &models.Lesson{ID: lessonM, GroupID: groupH, Topic: "Essay", Status: models.StatusActive}
	_, svc := newHomeworkService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateHomeworkRequest{LessonID: lessonL, Title: "Mine"}, ownerTeacher)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateHomeworkRequest{LessonID: lessonM, Title: "Theirs"}, adminActor)
	require.NoError(t, err)

	mine, _, err := svc.List(ctx, models.HomeworkFilter{TeacherID: teacherB}, ownerTeacher)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Title)

	all, pagination, err := svc.List(ctx, models.HomeworkFilter{}, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, pagination.TotalCount)

	byLesson, _, err := svc.List(ctx, models.HomeworkFilter{LessonID: lessonM}, superActor)
	require.NoError(t, err)
	require.Len(t, byLesson, 1)
	assert.Equal(t, "Theirs", byLesson[0].Title)
}
