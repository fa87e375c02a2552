package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Result Management API",
        "description": "Role-based academic records backend: marks, grades and results",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "Users", "description": "Account management (admin)"},
        {"name": "Students", "description": "Student profile management (admin)"},
        {"name": "Subjects", "description": "Subject catalog and ownership"},
        {"name": "Enrollments", "description": "Student to subject links (admin)"},
        {"name": "Marks", "description": "Mark submission (teacher)"},
        {"name": "Results", "description": "Aggregated results (student)"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependencies unavailable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current principal info",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List user accounts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"},
                    "409": {"description": "Username or email taken"}
                }
            }
        },
        "/admin/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "division", "in": "query", "type": "string"},
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code or roll number taken"}
                }
            }
        },
        "/admin/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export student roster as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV payload"}
                }
            }
        },
        "/admin/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Subject code taken"}
                }
            }
        },
        "/admin/subjects/{id}/teacher": {
            "put": {
                "tags": ["Subjects"],
                "summary": "Assign owning teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignTeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Subject or teacher not found"}
                }
            }
        },
        "/admin/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll student into subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or subject not found"},
                    "409": {"description": "Already enrolled"}
                }
            }
        },
        "/teacher/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects owned by the authenticated teacher",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teacher/marks": {
            "post": {
                "tags": ["Marks"],
                "summary": "Submit or overwrite a mark",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Marks outside 0..100"},
                    "403": {"description": "Subject not owned by teacher"},
                    "404": {"description": "Student or subject not found"}
                }
            }
        },
        "/student/me": {
            "get": {
                "tags": ["Results"],
                "summary": "Authenticated student's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No linked student profile"}
                }
            }
        },
        "/student/result": {
            "get": {
                "tags": ["Results"],
                "summary": "Aggregated result with CGPA",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/result/pdf": {
            "get": {
                "tags": ["Results"],
                "summary": "Download result card as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "TEACHER", "STUDENT"]},
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "student_id": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["student_code", "roll_no", "name"],
            "properties": {
                "student_code": {"type": "string"},
                "roll_no": {"type": "string"},
                "name": {"type": "string"},
                "division": {"type": "string"},
                "batch": {"type": "string"},
                "elective": {"type": "string"}
            }
        },
        "CreateSubjectRequest": {
            "type": "object",
            "required": ["code", "name"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "credits": {"type": "integer"},
                "teacher_id": {"type": "string"}
            }
        },
        "AssignTeacherRequest": {
            "type": "object",
            "required": ["teacher_id"],
            "properties": {
                "teacher_id": {"type": "string"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["student_id", "subject_id"],
            "properties": {
                "student_id": {"type": "string"},
                "subject_id": {"type": "string"}
            }
        },
        "SubmitMarkRequest": {
            "type": "object",
            "required": ["student_id", "subject_id", "marks"],
            "properties": {
                "student_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "marks": {"type": "integer", "minimum": 0, "maximum": 100}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
