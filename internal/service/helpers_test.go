package service

import appErrors "github.com/noah-isme/educenter-api/pkg/errors"

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return appErrors.FromError(err).Code
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return appErrors.FromError(err).Message
}

// Fixture ids. Request payloads only accept uuid keys.
const (
	roomR       = "a1000000-0000-4000-8000-000000000001"
	roomS       = "a1000000-0000-4000-8000-000000000002"
	roomClosed  = "a1000000-0000-4000-8000-000000000003"
	course1h    = "c1000000-0000-4000-8000-000000000001"
	course2h    = "c1000000-0000-4000-8000-000000000002"
	courseOld   = "c1000000-0000-4000-8000-000000000003"
	teacherA    = "7ea00000-0000-4000-8000-00000000000a"
	teacherB    = "7ea00000-0000-4000-8000-00000000000b"
	teacherGone = "7ea00000-0000-4000-8000-0000000000ff"
	groupG      = "b1000000-0000-4000-8000-000000000001"
	groupH      = "b1000000-0000-4000-8000-000000000002"
	groupSmall  = "b1000000-0000-4000-8000-000000000003"
	groupBig    = "b1000000-0000-4000-8000-000000000004"
	groupClosed = "b1000000-0000-4000-8000-000000000005"
	lessonL     = "d1000000-0000-4000-8000-000000000001"
	lessonM     = "d1000000-0000-4000-8000-000000000002"
	student1    = "5d000000-0000-4000-8000-000000000001"
	student2    = "5d000000-0000-4000-8000-000000000002"
	student3    = "5d000000-0000-4000-8000-000000000003"
	student9    = "5d000000-0000-4000-8000-000000000009"
	studentGone = "5d000000-0000-4000-8000-0000000000ff"
	missingID   = "00000000-0000-4000-8000-000000000000"
)
