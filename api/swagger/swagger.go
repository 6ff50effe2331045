package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "College Admin API",
        "description": "Administration backend for faculty, departments, subjects and classes.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Faculty", "description": "Faculty roster management"},
        {"name": "Departments", "description": "Department and HOD management"},
        {"name": "Subjects", "description": "Subject catalogue"},
        {"name": "Classes", "description": "Class and coordinator management"},
        {"name": "Admins", "description": "Admin account management (SUPERADMIN)"},
        {"name": "Dashboard", "description": "Aggregated counters and activity"},
        {"name": "Exports", "description": "Roster exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Locked or deactivated account"}
                }
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty members",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "hod", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Create a faculty member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFacultyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already used"}
                }
            }
        },
        "/faculty/{id}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Get a faculty member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Faculty"],
                "summary": "Update a faculty member (email is immutable)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFacultyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Faculty"],
                "summary": "Delete a faculty member, releasing any HOD role first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted; payload carries any deactivated department"},
                    "409": {"description": "HOD release failed, member not deleted"}
                }
            }
        },
        "/faculty/{id}/status": {
            "patch": {
                "tags": ["Faculty"],
                "summary": "Activate or deactivate a faculty member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Cannot activate without a department"}
                }
            }
        },
        "/faculty/{id}/hod": {
            "patch": {
                "tags": ["Faculty"],
                "summary": "Direct HOD flag toggle (always rejected)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "400": {"description": "HOD status is managed through department endpoints"}
                }
            }
        },
        "/faculty/{id}/demote": {
            "post": {
                "tags": ["Faculty"],
                "summary": "Remove a faculty member's HOD role",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK; payload carries any deactivated department"}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Create a department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDepartmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Active department requires an HOD"}
                }
            }
        },
        "/departments/{id}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Get a department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Departments"],
                "summary": "Update a department; hod_id changes route through chair transitions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDepartmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Chair conflict"}
                }
            },
            "delete": {
                "tags": ["Departments"],
                "summary": "Delete a department, releasing its HOD first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/departments/{id}/status": {
            "patch": {
                "tags": ["Departments"],
                "summary": "Activate or deactivate a department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Cannot activate without an HOD"}
                }
            }
        },
        "/departments/{id}/hod": {
            "post": {
                "tags": ["Departments"],
                "summary": "Assign an HOD",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignHodRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Candidate already chairs a department"}
                }
            },
            "put": {
                "tags": ["Departments"],
                "summary": "Replace the sitting HOD",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReassignHodRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Chair changed concurrently"}
                }
            },
            "delete": {
                "tags": ["Departments"],
                "summary": "Release the HOD, deactivating the department",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create a subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/subjects/bulk-assign": {
            "post": {
                "tags": ["Subjects"],
                "summary": "Reassign a batch of subjects to a department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignSubjectsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Coordinator already assigned to another class"}
                }
            }
        },
        "/classes/available-coordinators": {
            "get": {
                "tags": ["Classes"],
                "summary": "List active faculty not yet coordinating a class",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Get a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Classes"],
                "summary": "Update a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateClassRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Classes"],
                "summary": "Delete a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/classes/{id}/status": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Activate or deactivate a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admins": {
            "get": {
                "tags": ["Admins"],
                "summary": "List admin accounts",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "SUPERADMIN only"}
                }
            },
            "post": {
                "tags": ["Admins"],
                "summary": "Create an admin account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAdminRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/admins/{id}": {
            "get": {
                "tags": ["Admins"],
                "summary": "Get an admin account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Admins"],
                "summary": "Update an admin account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAdminRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Admins"],
                "summary": "Delete an admin account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Self-deletion refused"}
                }
            }
        },
        "/admins/{id}/status": {
            "patch": {
                "tags": ["Admins"],
                "summary": "Activate or deactivate an admin account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admins/{id}/unlock": {
            "post": {
                "tags": ["Admins"],
                "summary": "Unlock an admin account after failed logins",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admins/{id}/password": {
            "put": {
                "tags": ["Admins"],
                "summary": "Reset an admin account password",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetPasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Headline counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DashboardStats"}}
                }
            }
        },
        "/dashboard/activity": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Recent audit activity",
                "parameters": [
                    {"name": "resource", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/exports/faculty": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the faculty roster",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/exports/departments": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the department roster",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/exports/jobs": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a roster export for background rendering",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportJobRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Validation error"},
                    "503": {"description": "Queue unavailable"}
                }
            }
        },
        "/exports/jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Fetch the status of a queued export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Job belongs to another account"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export using a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "StatusRequest": {
            "type": "object",
            "properties": {
                "is_active": {"type": "boolean"}
            }
        },
        "CreateExportJobRequest": {
            "type": "object",
            "properties": {
                "resource": {"type": "string", "enum": ["faculty", "departments"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["resource"]
        },
        "CreateFacultyRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "phone": {"type": "string"},
                "gender": {"type": "string"},
                "qualification": {"type": "string"}
            },
            "required": ["first_name", "last_name", "email"]
        },
        "UpdateFacultyRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "department": {"type": "string"},
                "phone": {"type": "string"},
                "gender": {"type": "string"},
                "qualification": {"type": "string"}
            },
            "required": ["first_name", "last_name"]
        },
        "CreateDepartmentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "establish_year": {"type": "integer"},
                "hod_id": {"type": "integer"},
                "is_active": {"type": "boolean"}
            },
            "required": ["name"]
        },
        "UpdateDepartmentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "establish_year": {"type": "integer"},
                "hod_id": {"type": "integer"}
            },
            "required": ["name"]
        },
        "AssignHodRequest": {
            "type": "object",
            "properties": {
                "faculty_id": {"type": "integer"}
            },
            "required": ["faculty_id"]
        },
        "ReassignHodRequest": {
            "type": "object",
            "properties": {
                "old_faculty_id": {"type": "integer"},
                "new_faculty_id": {"type": "integer"}
            },
            "required": ["old_faculty_id", "new_faculty_id"]
        },
        "CreateSubjectRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "department_id": {"type": "integer"}
            },
            "required": ["name"]
        },
        "UpdateSubjectRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "department_id": {"type": "integer"}
            },
            "required": ["name"]
        },
        "BulkAssignSubjectsRequest": {
            "type": "object",
            "properties": {
                "subject_ids": {"type": "array", "items": {"type": "integer"}},
                "department_id": {"type": "integer"}
            },
            "required": ["subject_ids"]
        },
        "CreateClassRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "batch_year": {"type": "integer"},
                "coordinator_id": {"type": "integer"},
                "department_id": {"type": "integer"},
                "is_active": {"type": "boolean"}
            },
            "required": ["name"]
        },
        "UpdateClassRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "batch_year": {"type": "integer"},
                "coordinator_id": {"type": "integer"},
                "department_id": {"type": "integer"},
                "is_active": {"type": "boolean"}
            },
            "required": ["name"]
        },
        "CreateAdminRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "first_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"},
                "gender": {"type": "string"},
                "college_name": {"type": "string"},
                "college_address": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "SUPERADMIN"]}
            },
            "required": ["email", "password", "first_name", "last_name", "role"]
        },
        "UpdateAdminRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"},
                "gender": {"type": "string"},
                "college_name": {"type": "string"},
                "college_address": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "SUPERADMIN"]}
            },
            "required": ["first_name", "last_name", "role"]
        },
        "ResetPasswordRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"}
            },
            "required": ["password"]
        },
        "DashboardStats": {
            "type": "object",
            "properties": {
                "total_faculty": {"type": "integer"},
                "active_faculty": {"type": "integer"},
                "inactive_faculty": {"type": "integer"},
                "hod_count": {"type": "integer"},
                "total_departments": {"type": "integer"},
                "active_departments": {"type": "integer"},
                "total_subjects": {"type": "integer"},
                "total_classes": {"type": "integer"},
                "generated_at": {"type": "string"}
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
