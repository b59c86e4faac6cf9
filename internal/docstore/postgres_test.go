package docstore

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildFindSQL(t *testing.T) {
	tests := []struct {
		name     string
		q        Query
		wantSQL  []string
		wantArgs int
	}{
		{
			name:     "whole collection",
			q:        Query{Collection: "employees"},
			wantSQL:  []string{"WHERE collection = $1", "ORDER BY id ASC"},
			wantArgs: 1,
		},
		{
			name: "equality filter",
			q: Query{
				Collection: "employees",
				Filters:    []Filter{{Field: "active", Value: true}},
			},
			wantSQL:  []string{"data @> $2::jsonb"},
			wantArgs: 2,
		},
		{
			name: "filter, order and limit",
			q: Query{
				Collection: "nominations",
				Filters:    []Filter{{Field: "status", Value: "pending"}},
				OrderBy:    "createdAt",
				Direction:  Desc,
				Limit:      10,
			},
			wantSQL:  []string{"data @> $2::jsonb", "ORDER BY data -> $3 DESC, id ASC", "LIMIT $4"},
			wantArgs: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildFindSQL(tt.q)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, frag := range tt.wantSQL {
				if !strings.Contains(sql, frag) {
					t.Errorf("sql %q missing %q", sql, frag)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("expected %d args, got %d", tt.wantArgs, len(args))
			}
		})
	}
}

func TestBuildFindSQL_FilterEncoding(t *testing.T) {
	_, args, err := buildFindSQL(Query{
		Collection: "nominations",
		Filters:    []Filter{{Field: "status", Value: "approved"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, ok := args[1].([]byte)
	if !ok {
		t.Fatalf("expected filter arg to be JSON bytes, got %T", args[1])
	}
	if string(raw) != `{"status":"approved"}` {
		t.Errorf("unexpected filter json: %s", raw)
	}
}

func TestBuildFindSQL_RequiresCollection(t *testing.T) {
	if _, _, err := buildFindSQL(Query{}); !errors.Is(err, ErrInvalidOp) {
		t.Fatalf("expected ErrInvalidOp, got %v", err)
	}
}

func TestDecodeJSONB(t *testing.T) {
	data, err := decodeJSONB([]byte(`{"rank": 1, "employee": {"name": "Ada"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if Int(data["rank"]) != 1 || Map(data["employee"])["name"] != "Ada" {
		t.Errorf("unexpected decode: %v", data)
	}
	empty, err := decodeJSONB(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty map for empty input, got %v, %v", empty, err)
	}
}

func TestBuildUpdateSQL(t *testing.T) {
	plain := UpdateOp("nominations", "n1", map[string]any{"status": "approved"})
	query, args, err := buildUpdateSQL(plain, []byte(`{"status":"approved"}`))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(query, "$4") || len(args) != 3 {
		t.Errorf("unguarded update should have no condition, got %q with %d args", query, len(args))
	}

	guarded := plain.If(Filter{Field: "status", Value: "pending"})
	query, args, err = buildUpdateSQL(guarded, []byte(`{"status":"approved"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(query, "AND data @> $4::jsonb") {
		t.Errorf("guarded update should test containment, got %q", query)
	}
	if len(args) != 4 || string(args[3].([]byte)) != `{"status":"pending"}` {
		t.Errorf("unexpected args %v", args)
	}
}
