package api

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConsultationFlow walks the whole consultation lifecycle against a
// running server: the doctor opens a slot, the patient books it, the
// doctor confirms, the payment callback lands, and both sides can read
// the session gate. Run with API_URL pointing at a server whose
// database is disposable.
func TestConsultationFlow(t *testing.T) {
	if os.Getenv("API_URL") == "" {
		t.Skip("API_URL not set, skipping integration test")
	}

	doctorID := uuid.New()
	patientID := uuid.New()
	doctorToken := IssueToken(doctorID, "doctor")
	patientToken := IssueToken(patientID, "patient")
	paymentToken := IssueToken(uuid.New(), "payment")

	slotDate := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	var appointmentID string

	t.Run("doctor adds a slot", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/doctors/"+doctorID.String()+"/slots", map[string]interface{}{
			"date":        slotDate,
			"time_of_day": "10:30",
		}, doctorToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.RawData))
		assert.True(t, resp.Success)
	})

	t.Run("duplicate slot is rejected", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/doctors/"+doctorID.String()+"/slots", map[string]interface{}{
			"date":        slotDate,
			"time_of_day": "10:30",
		}, doctorToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, string(resp.RawData))
	})

	t.Run("patient cannot add a slot", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/doctors/"+doctorID.String()+"/slots", map[string]interface{}{
			"date":        slotDate,
			"time_of_day": "11:00",
		}, patientToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(resp.RawData))
	})

	t.Run("slot list shows the month", func(t *testing.T) {
		resp := MakeRequest("GET", "/api/v1/doctors/"+doctorID.String()+"/slots?month="+slotDate[:7], nil, patientToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
	})

	t.Run("patient books the slot", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments", map[string]interface{}{
			"doctor_id":   doctorID.String(),
			"date":        slotDate,
			"time_of_day": "10:30",
			"complaint":   "recurring headaches",
		}, patientToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.RawData))
		appointmentID = resp.GetString("id")
		require.NotEmpty(t, appointmentID)
		assert.Equal(t, "pending", resp.GetString("status"))
		assert.Equal(t, "pending", resp.GetString("payment_status"))
	})

	t.Run("booking an unavailable slot fails", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments", map[string]interface{}{
			"doctor_id":   doctorID.String(),
			"date":        slotDate,
			"time_of_day": "23:45",
			"complaint":   "anything",
		}, patientToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, string(resp.RawData))
	})

	t.Run("doctor confirms", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments/"+appointmentID+"/confirm", nil, doctorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
		assert.Equal(t, "confirmed", resp.GetString("status"))
	})

	t.Run("second confirm is a conflict", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments/"+appointmentID+"/confirm", nil, doctorToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, string(resp.RawData))
	})

	t.Run("session is unpaid before payment", func(t *testing.T) {
		resp := MakeRequest("GET", "/api/v1/sessions/"+appointmentID+"/status", nil, patientToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
		assert.Equal(t, "unpaid", resp.GetString("state"))
	})

	t.Run("message before payment is rejected", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/sessions/"+appointmentID+"/messages", map[string]interface{}{
			"type":    "text",
			"content": "hello doctor",
		}, patientToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, string(resp.RawData))
	})

	t.Run("payment callback marks the appointment paid", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments/"+appointmentID+"/payment", map[string]interface{}{
			"status": "completed",
		}, paymentToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
	})

	t.Run("patient cannot post payment updates", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments/"+appointmentID+"/payment", map[string]interface{}{
			"status": "completed",
		}, patientToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(resp.RawData))
	})

	t.Run("session waits for the start time", func(t *testing.T) {
		resp := MakeRequest("GET", "/api/v1/sessions/"+appointmentID+"/status", nil, patientToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
		assert.Equal(t, "not_started", resp.GetString("state"))
	})

	t.Run("stranger cannot read the session", func(t *testing.T) {
		resp := MakeRequest("GET", "/api/v1/sessions/"+appointmentID+"/status", nil, IssueToken(uuid.New(), "patient"))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(resp.RawData))
	})

	t.Run("patient cancels", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments/"+appointmentID+"/cancel", map[string]interface{}{
			"reason": "schedule conflict",
		}, patientToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
		assert.Equal(t, "cancelled", resp.GetString("status"))
	})

	t.Run("cancelled appointment cannot be confirmed", func(t *testing.T) {
		resp := MakeRequest("POST", "/api/v1/appointments/"+appointmentID+"/confirm", nil, doctorToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, string(resp.RawData))
	})
}

func TestDoctorRatingRollup(t *testing.T) {
	if os.Getenv("API_URL") == "" {
		t.Skip("API_URL not set, skipping integration test")
	}

	doctorID := uuid.New()
	resp := MakeRequest("GET", "/api/v1/doctors/"+doctorID.String()+"/rating", nil, IssueToken(uuid.New(), "patient"))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.RawData))
	assert.Equal(t, float64(0), resp.Data["rating_count"])
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	if os.Getenv("API_URL") == "" {
		t.Skip("API_URL not set, skipping integration test")
	}

	resp := MakeRequest("GET", "/api/v1/appointments", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, string(resp.RawData))
}
