package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/educenter-api/internal/models"
)

// RoomRepository reads rooms referenced by groups.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID returns a room regardless of status; sql.ErrNoRows when absent.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, status, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := conn(ctx, r.db).GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// CourseRepository reads courses referenced by groups.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course regardless of status; sql.ErrNoRows when absent.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, price, duration_month, duration_hours, level, status, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := conn(ctx, r.db).GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// TeacherRepository reads teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID returns a teacher regardless of status; sql.ErrNoRows when absent.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, first_name, last_name, phone, email, status, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := conn(ctx, r.db).GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// StudentRepository reads student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student regardless of status; sql.ErrNoRows when absent.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, phone, email, birth_date, status, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := conn(ctx, r.db).GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UserRepository reads staff accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user; sql.ErrNoRows when absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, full_name, role, status, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := conn(ctx, r.db).GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
