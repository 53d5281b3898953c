package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"notehive/internal/api/middleware"
	"notehive/internal/model"
	"notehive/internal/pkg/apperr"
	"notehive/internal/store"
)

type graphUserKey struct{}

// graphQLRequest GraphQL HTTP 请求体。
type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// buildSchema 构建 GraphQL Schema。
//
// 只有一个查询入口 myNotes；Note.owner 延迟解析所属用户，
// User 类型不暴露密码等敏感字段。
func (s *Server) buildSchema() (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"_id":        &graphql.Field{Type: graphql.ID},
			"fullname":   &graphql.Field{Type: graphql.String},
			"email":      &graphql.Field{Type: graphql.String},
			"profilePic": &graphql.Field{Type: graphql.String},
		},
	})

	noteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Note",
		Fields: graphql.Fields{
			"_id":     &graphql.Field{Type: graphql.ID},
			"title":   &graphql.Field{Type: graphql.String},
			"content": &graphql.Field{Type: graphql.String},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					note, _ := p.Source.(model.Note)
					return note.CreatedAt.Format(time.RFC3339), nil
				},
			},
			"updatedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					note, _ := p.Source.(model.Note)
					return note.UpdatedAt.Format(time.RFC3339), nil
				},
			},
			"owner": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					note, ok := p.Source.(model.Note)
					if !ok {
						return nil, nil
					}
					owner, err := s.users.ByID(p.Context, note.OwnerID)
					if err != nil {
						return nil, err
					}
					return *owner, nil
				},
			},
		},
	})

	metaType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ListMeta",
		Fields: graphql.Fields{
			"page":  &graphql.Field{Type: graphql.Int},
			"limit": &graphql.Field{Type: graphql.Int},
			"total": &graphql.Field{Type: graphql.Int},
			"pages": &graphql.Field{Type: graphql.Int},
		},
	})

	myNotesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MyNotes",
		Fields: graphql.Fields{
			"data": &graphql.Field{Type: graphql.NewList(noteType)},
			"meta": &graphql.Field{Type: metaType},
		},
	})

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQueryType",
		Fields: graphql.Fields{
			"myNotes": &graphql.Field{
				Type: myNotesType,
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.ID},
					"title":  &graphql.ArgumentConfig{Type: graphql.String},
					"from":   &graphql.ArgumentConfig{Type: graphql.String},
					"to":     &graphql.ArgumentConfig{Type: graphql.String},
					"page":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: s.resolveMyNotes,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}

// resolveMyNotes 查询当前用户的笔记。
//
// 查询始终限定在调用者自己的数据上：userId 只有在与调用者
// 一致时才生效，传别人的 ID 查不到任何东西。
func (s *Server) resolveMyNotes(p graphql.ResolveParams) (any, error) {
	user, ok := p.Context.Value(graphUserKey{}).(*model.User)
	if !ok || user == nil {
		return nil, apperr.Unauthenticated("You must be logged in")
	}

	filter := store.NotesFilter{
		OwnerID: user.ID,
		Page:    argInt(p.Args, "page", 1),
		Limit:   argInt(p.Args, "limit", 10),
	}
	if v, ok := p.Args["userId"].(string); ok && v != "" {
		if v != formatID(user.ID) {
			// 非本人的 userId 不放大查询范围
			return map[string]any{
				"data": []model.Note{},
				"meta": newListMeta(filter.Page, filter.Limit, 0),
			}, nil
		}
	}
	if v, ok := p.Args["title"].(string); ok {
		filter.Title = v
	}
	if v, ok := p.Args["from"].(string); ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid 'from' date format.")
		}
		filter.From = &t
	}
	if v, ok := p.Args["to"].(string); ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid 'to' date format.")
		}
		filter.To = &t
	}

	notes, total, err := s.notes.List(p.Context, filter)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"data": notes,
		"meta": newListMeta(filter.Page, filter.Limit, total),
	}, nil
}

// handleGraphQL 执行 GraphQL 查询。
//
// POST /graphql
func (s *Server) handleGraphQL(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		s.fail(c, apperr.Unauthenticated("You are not logged in. Please log in to access this route."))
		return
	}

	var req graphQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	ctx := context.WithValue(c.Request.Context(), graphUserKey{}, user)
	result := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})

	c.JSON(http.StatusOK, result)
}

func argInt(args map[string]any, key string, def int) int {
	if v, ok := args[key].(int); ok && v > 0 {
		return v
	}
	return def
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
