package handlers

import (
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
		wantPage   int
	}{
		{name: "defaults", query: "", wantLimit: 20, wantOffset: 0, wantPage: 1},
		{name: "second page", query: "page=2&page_size=10", wantLimit: 10, wantOffset: 10, wantPage: 2},
		{name: "negative page", query: "page=-4", wantLimit: 20, wantOffset: 0, wantPage: 1},
		{name: "oversized page size", query: "page_size=1000", wantLimit: 100, wantOffset: 0, wantPage: 1},
		{
			name:       "max int page",
			query:      "page=" + strconv.Itoa(int(^uint(0)>>1)) + "&page_size=100",
			wantLimit:  100,
			wantOffset: (maxPage - 1) * 100,
			wantPage:   maxPage,
		},
		{name: "unparseable page", query: "page=99999999999999999999999", wantLimit: 20, wantOffset: 0, wantPage: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)

			limit, offset, page := pagination(c, 20, 100)

			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantPage, page)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}
