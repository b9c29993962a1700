package apisvc

import (
	"context"
	"strconv"

	"github.com/sendgrid/rest"

	"github.com/trezcool/tododesk/core/todo"
)

const todosPath = "/api/todos"

func todoPath(id int) string { return todosPath + "/" + strconv.Itoa(id) }

// ListTodos lists the todos matching filter. Empty filter fields are not sent.
func (c *Client) ListTodos(ctx context.Context, filter todo.Filter) ([]todo.Todo, error) {
	todos := make([]todo.Todo, 0)
	if err := c.send(ctx, rest.Get, todosPath, filter.Params(), nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) GetTodo(ctx context.Context, id int) (todo.Todo, error) {
	var t todo.Todo
	if err := c.send(ctx, rest.Get, todoPath(id), nil, nil, &t); err != nil {
		return todo.Todo{}, err
	}
	return t, nil
}

func (c *Client) CreateTodo(ctx context.Context, nt todo.NewTodo) (todo.Todo, error) {
	var t todo.Todo
	if err := c.send(ctx, rest.Post, todosPath, nil, nt, &t); err != nil {
		return todo.Todo{}, err
	}
	return t, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id int, ut todo.UpdateTodo) (todo.Todo, error) {
	var t todo.Todo
	if err := c.send(ctx, rest.Put, todoPath(id), nil, ut, &t); err != nil {
		return todo.Todo{}, err
	}
	return t, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.send(ctx, rest.Delete, todoPath(id), nil, nil, nil)
}

// TodoStats returns the aggregate counts computed by the remote API.
func (c *Client) TodoStats(ctx context.Context) (*todo.Stats, error) {
	var stats todo.Stats
	if err := c.send(ctx, rest.Get, todosPath+"/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
