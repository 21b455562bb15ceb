package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalDate(t *testing.T) {
	d, err := ParseLocalDate("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", d.String())

	_, err = ParseLocalDate("03/01/2025")
	assert.Error(t, err)
	_, err = ParseLocalDate("next friday")
	assert.Error(t, err)
	_, err = ParseLocalDate("")
	assert.Error(t, err)
}

func TestLocalDateJSONRoundtrip(t *testing.T) {
	d, err := ParseLocalDate("2025-03-01")
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01"`, string(data))

	var back LocalDate
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d.String(), back.String())
}

func TestLocalDateScan(t *testing.T) {
	var d LocalDate

	require.NoError(t, d.Scan(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-03-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-12-31")))
	assert.Equal(t, "2024-12-31", d.String())

	require.NoError(t, d.Scan("2023-01-15"))
	assert.Equal(t, "2023-01-15", d.String())

	assert.Error(t, d.Scan(42))
}

func TestTaskNullableDueDateInJSON(t *testing.T) {
	task := Task{Title: "X", Status: TaskStatusTodo}
	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dueDate":null`)
}

func TestValidTaskStatus(t *testing.T) {
	assert.True(t, ValidTaskStatus(TaskStatusTodo))
	assert.True(t, ValidTaskStatus(TaskStatusInProgress))
	assert.True(t, ValidTaskStatus(TaskStatusDone))
	assert.False(t, ValidTaskStatus("archived"))
	assert.False(t, ValidTaskStatus(""))
}
