package apisvc

import (
	"context"
	"strconv"

	"github.com/sendgrid/rest"

	"github.com/trezcool/tododesk/core/student"
)

const studentsPath = "/api/students"

func studentPath(id int) string { return studentsPath + "/" + strconv.Itoa(id) }

func (c *Client) ListStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if err := c.send(ctx, rest.Get, studentsPath, nil, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) GetStudent(ctx context.Context, id int) (student.Student, error) {
	var s student.Student
	if err := c.send(ctx, rest.Get, studentPath(id), nil, nil, &s); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (c *Client) CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var s student.Student
	if err := c.send(ctx, rest.Post, studentsPath, nil, ns, &s); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (c *Client) UpdateStudent(ctx context.Context, id int, us student.UpdateStudent) (student.Student, error) {
	var s student.Student
	if err := c.send(ctx, rest.Put, studentPath(id), nil, us, &s); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (c *Client) DeleteStudent(ctx context.Context, id int) error {
	return c.send(ctx, rest.Delete, studentPath(id), nil, nil, nil)
}
