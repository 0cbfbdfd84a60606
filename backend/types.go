package backend

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// DBStatus is the result of the database probe.
type DBStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the probe succeeded.
func (s DBStatus) OK() bool {
	return s.Status == "ok"
}
