package design

import (
	. "goa.design/goa/v3/dsl"
)

var _ = API("adspace", func() {
	Title("Adspace API")
	Description("Contact inquiries, site content and media for the Adspace advertising site")
	Version("1.0.0")
	Server("api", func() {
		Host("localhost", func() {
			URI("http://localhost:8000")
		})
	})
})

var JWTAuth = JWTSecurity("jwt", func() {
	Description("Bearer token issued by POST /login")
	Scope("admin", "Back office access")
	Scope("superAdmin", "Account management and deletes")
})

// Error bodies share the name/id/message shape.
var ErrorBody = Type("ErrorBody", func() {
	Attribute("name", String, "Error name", func() {
		Example("not_found")
	})
	Attribute("id", String, "Error instance ID")
	Attribute("message", String, "Error message", func() {
		Example("inquiry not found")
	})
	Required("name", "message")
})

// commonErrors declares the errors every service can answer with.
func commonErrors() {
	Error("bad_request", ErrorBody)
	Error("unauthorized", ErrorBody)
	Error("forbidden", ErrorBody)
	Error("not_found", ErrorBody)
	Error("too_many_requests", ErrorBody)
	Error("dispatch_failed", ErrorBody)
	HTTP(func() {
		Response("bad_request", StatusBadRequest)
		Response("unauthorized", StatusUnauthorized)
		Response("forbidden", StatusForbidden)
		Response("not_found", StatusNotFound)
		Response("too_many_requests", StatusTooManyRequests)
		Response("dispatch_failed", StatusInternalServerError)
	})
}

func idPayload(name string) any {
	return Type(name, func() {
		Token("token", String, "JWT token")
		Attribute("id", String, "Record ID")
		Required("id")
	})
}

var _ = Service("health", func() {
	Description("Liveness and dependency checks")
	Method("check", func() {
		Result(HealthResult)
		HTTP(func() {
			GET("/health")
			Response(StatusOK)
		})
	})
})

var HealthResult = ResultType("HealthResult", func() {
	Attribute("status", String, "healthy or degraded", func() {
		Enum("healthy", "degraded")
	})
	Attribute("service", String, "Service name", func() {
		Example("Adspace API")
	})
	Attribute("version", String, "Service version")
	Attribute("database", String, "Database reachability", func() {
		Example("connected")
	})
	Required("status", "service", "version", "database")
})

var _ = Service("messaging", func() {
	Description("Instant messaging channel used for notifications")
	commonErrors()
	Method("status", func() {
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(MessagingStatus)
		HTTP(func() {
			GET("/messaging/status")
			Response(StatusOK)
		})
	})
})

var MessagingStatus = ResultType("MessagingStatus", func() {
	Attribute("provider", String, "Messaging provider", func() {
		Example("cloudapi")
	})
	Attribute("ready", Boolean, "Whether messages can be sent")
	Attribute("qr", String, "Pairing QR code while the channel is unpaired")
	Attribute("detail", String, "Reason the channel is not ready")
	Required("provider", "ready")
})

var _ = Service("auth", func() {
	Description("Sign in and admin account management")
	commonErrors()

	Method("login", func() {
		Description("Exchange credentials for a bearer token. Repeated failures are throttled.")
		Payload(LoginPayload)
		Result(LoginResult)
		HTTP(func() {
			POST("/login")
			Response(StatusOK)
		})
	})

	Method("me", func() {
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(UserResult)
		HTTP(func() {
			GET("/me")
			Response(StatusOK)
		})
	})

	Method("list_users", func() {
		Security(JWTAuth, func() {
			Scope("superAdmin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(ArrayOf(UserResult))
		HTTP(func() {
			GET("/users")
			Response(StatusOK)
		})
	})

	Method("create_user", func() {
		Security(JWTAuth, func() {
			Scope("superAdmin")
		})
		Payload(CreateUserPayload)
		Result(UserResult)
		HTTP(func() {
			POST("/users")
			Response(StatusCreated)
		})
	})

	Method("update_user", func() {
		Security(JWTAuth, func() {
			Scope("superAdmin")
		})
		Payload(UpdateUserPayload)
		Result(UserResult)
		HTTP(func() {
			PATCH("/users/{id}")
			Response(StatusOK)
		})
	})

	Method("delete_user", func() {
		Description("Delete an account. The last super admin cannot be removed.")
		Security(JWTAuth, func() {
			Scope("superAdmin")
		})
		Payload(idPayload("DeleteUserPayload"))
		HTTP(func() {
			DELETE("/users/{id}")
			Response(StatusNoContent)
		})
	})
})

var LoginPayload = Type("LoginPayload", func() {
	Attribute("email", String, "Account email", func() {
		Format(FormatEmail)
		Example("ops@adspace.example")
	})
	Attribute("password", String, "Password", func() {
		MinLength(1)
	})
	Required("email", "password")
})

var LoginResult = ResultType("LoginResult", func() {
	Attribute("token", String, "Bearer token")
	Attribute("role", String, "Account role", func() {
		Enum("admin", "superAdmin")
	})
	Attribute("email", String, "Account email")
	Attribute("expiresAt", String, "Token expiry", func() {
		Format(FormatDateTime)
	})
	Required("token", "role", "email", "expiresAt")
})

var UserResult = ResultType("UserResult", func() {
	Attribute("id", String, "User ID")
	Attribute("email", String, "Account email")
	Attribute("role", String, "Account role", func() {
		Enum("admin", "superAdmin")
	})
	Attribute("status", String, "Account status", func() {
		Enum("active", "suspended")
	})
	Attribute("lastLogin", String, "Last successful sign in", func() {
		Format(FormatDateTime)
	})
	Attribute("createdAt", String, func() {
		Format(FormatDateTime)
	})
	Attribute("updatedAt", String, func() {
		Format(FormatDateTime)
	})
	Required("id", "email", "role", "status", "createdAt", "updatedAt")
})

var CreateUserPayload = Type("CreateUserPayload", func() {
	Token("token", String, "JWT token")
	Attribute("email", String, "Account email", func() {
		Format(FormatEmail)
		MaxLength(254)
	})
	Attribute("password", String, "Initial password", func() {
		MinLength(8)
		MaxLength(72)
	})
	Attribute("role", String, "Account role, admin when omitted", func() {
		Enum("admin", "superAdmin")
	})
	Required("email", "password")
})

var UpdateUserPayload = Type("UpdateUserPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "User ID")
	Attribute("role", String, func() {
		Enum("admin", "superAdmin")
	})
	Attribute("status", String, func() {
		Enum("active", "suspended")
	})
	Attribute("password", String, func() {
		MinLength(8)
		MaxLength(72)
	})
	Required("id")
})

var _ = Service("contact", func() {
	Description("Contact inquiries submitted from the public site")
	commonErrors()

	Method("submit", func() {
		Description("Store an inquiry and queue the admin and submitter notifications.")
		Payload(InquiryPayload)
		Result(InquiryResult)
		HTTP(func() {
			POST("/contact/inquiry")
			Response(StatusCreated)
		})
	})

	Method("list", func() {
		Description("All inquiries, newest first.")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(ArrayOf(InquiryResult))
		HTTP(func() {
			GET("/contact/inquiries")
			Response(StatusOK)
		})
	})

	Method("get", func() {
		Description("Read an inquiry without changing its status.")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(idPayload("GetInquiryPayload"))
		Result(InquiryResult)
		HTTP(func() {
			GET("/contact/inquiries/{id}")
			Response(StatusOK)
		})
	})

	Method("view", func() {
		Description("Open an inquiry. An unread inquiry becomes read.")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(idPayload("ViewInquiryPayload"))
		Result(InquiryResult)
		HTTP(func() {
			POST("/contact/inquiries/{id}/view")
			Response(StatusOK)
		})
	})

	Method("forward", func() {
		Description("Email the inquiry to a third party and mark it forwarded.")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("id", String, "Inquiry ID")
			Attribute("forwardingEmail", String, "Recipient", func() {
				Format(FormatEmail)
			})
			Required("id", "forwardingEmail")
		})
		Result(InquiryResult)
		HTTP(func() {
			POST("/contact/inquiries/{id}/forward")
			Response(StatusOK)
		})
	})

	Method("update_status", func() {
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("id", String, "Inquiry ID")
			Attribute("status", String, func() {
				Enum("unread", "read")
			})
			Required("id", "status")
		})
		Result(InquiryResult)
		HTTP(func() {
			PATCH("/contact/inquiries/{id}/status")
			Response(StatusOK)
		})
	})

	Method("add_note", func() {
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("id", String, "Inquiry ID")
			Attribute("content", String, "Note text", func() {
				MinLength(1)
			})
			Required("id", "content")
		})
		Result(InquiryResult)
		HTTP(func() {
			POST("/contact/inquiries/{id}/notes")
			Response(StatusOK)
		})
	})
})

var InquiryPayload = Type("InquiryPayload", func() {
	Attribute("advertisingState", String, func() { MaxLength(120) })
	Attribute("advertisingMarket", String, func() { MaxLength(120) })
	Attribute("topic", String, func() { MaxLength(200) })
	Attribute("media", String, func() { MaxLength(120) })
	Attribute("firstName", String, func() { MaxLength(100) })
	Attribute("lastName", String, func() { MaxLength(100) })
	Attribute("phone", String, func() { MaxLength(32) })
	Attribute("email", String, func() {
		Format(FormatEmail)
		MaxLength(254)
	})
	Attribute("city", String, func() { MaxLength(120) })
	Attribute("message", String, func() { MaxLength(5000) })
	Required("advertisingState", "advertisingMarket", "topic", "media",
		"firstName", "lastName", "phone", "email", "city", "message")
})

var Note = Type("Note", func() {
	Attribute("content", String)
	Attribute("createdAt", String, func() {
		Format(FormatDateTime)
	})
	Required("content", "createdAt")
})

var InquiryResult = ResultType("InquiryResult", func() {
	Extend(InquiryPayload)
	Attribute("id", String, "Inquiry ID")
	Attribute("status", String, func() {
		Enum("unread", "read")
	})
	Attribute("isForwarded", Boolean)
	Attribute("notes", ArrayOf(Note))
	Attribute("createdAt", String, func() {
		Format(FormatDateTime)
	})
	Attribute("updatedAt", String, func() {
		Format(FormatDateTime)
	})
	Required("id", "status", "isForwarded", "notes", "createdAt", "updatedAt")
})

var Blog = ResultType("Blog", func() {
	Attribute("id", String)
	Attribute("title", String, func() { MaxLength(200) })
	Attribute("slug", String, "Derived from the title when omitted", func() { MaxLength(220) })
	Attribute("summary", String, func() { MaxLength(500) })
	Attribute("content", String)
	Attribute("author", String, func() { MaxLength(120) })
	Attribute("imageUrl", String, func() { Format(FormatURI) })
	Attribute("imageRef", String, "Media reference of an uploaded image")
	Attribute("published", Boolean)
	Attribute("createdAt", String, func() { Format(FormatDateTime) })
	Attribute("updatedAt", String, func() { Format(FormatDateTime) })
	Required("title", "content")
})

var Job = ResultType("Job", func() {
	Attribute("id", String)
	Attribute("title", String, func() { MaxLength(200) })
	Attribute("department", String, func() { MaxLength(120) })
	Attribute("location", String, func() { MaxLength(120) })
	Attribute("employmentType", String, func() {
		Enum("full-time", "part-time", "contract", "internship")
	})
	Attribute("description", String)
	Attribute("requirements", ArrayOf(String))
	Attribute("isActive", Boolean)
	Attribute("createdAt", String, func() { Format(FormatDateTime) })
	Attribute("updatedAt", String, func() { Format(FormatDateTime) })
	Required("title", "location", "description")
})

var Reel = ResultType("Reel", func() {
	Attribute("id", String)
	Attribute("title", String, func() { MaxLength(200) })
	Attribute("videoUrl", String, func() { Format(FormatURI) })
	Attribute("thumbnailUrl", String, func() { Format(FormatURI) })
	Attribute("thumbnailRef", String, "Media reference of an uploaded thumbnail")
	Attribute("createdAt", String, func() { Format(FormatDateTime) })
	Attribute("updatedAt", String, func() { Format(FormatDateTime) })
	Required("title", "videoUrl")
})

// contentService declares list/get (public), create/update (admin) and
// delete (superAdmin) for one kind of site content under base.
func contentService(name, base string, item any) {
	Service(name, func() {
		commonErrors()

		Method("list", func() {
			Result(ArrayOf(item))
			HTTP(func() {
				GET(base)
				Response(StatusOK)
			})
		})

		Method("get", func() {
			Payload(func() {
				Attribute("id", String)
				Required("id")
			})
			Result(item)
			HTTP(func() {
				GET(base + "/{id}")
				Response(StatusOK)
			})
		})

		Method("create", func() {
			Security(JWTAuth, func() {
				Scope("admin")
			})
			Payload(func() {
				Token("token", String, "JWT token")
				Attribute("item", item)
				Required("item")
			})
			Result(item)
			HTTP(func() {
				POST(base)
				Body("item")
				Response(StatusCreated)
			})
		})

		Method("update", func() {
			Security(JWTAuth, func() {
				Scope("admin")
			})
			Payload(func() {
				Token("token", String, "JWT token")
				Attribute("id", String)
				Attribute("item", item)
				Required("id", "item")
			})
			Result(item)
			HTTP(func() {
				PUT(base + "/{id}")
				Body("item")
				Response(StatusOK)
			})
		})

		Method("delete", func() {
			Security(JWTAuth, func() {
				Scope("superAdmin")
			})
			Payload(func() {
				Token("token", String, "JWT token")
				Attribute("id", String)
				Required("id")
			})
			HTTP(func() {
				DELETE(base + "/{id}")
				Response(StatusNoContent)
			})
		})
	})
}

var _ = func() any {
	contentService("blogs", "/blogs", Blog)
	contentService("jobs", "/jobs", Job)
	contentService("reels", "/reels", Reel)
	return nil
}()

var _ = Service("media", func() {
	Description("Uploaded images and videos referenced by site content")
	commonErrors()

	Method("upload", func() {
		Description("Store a file. Images are re-encoded before storage.")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("filename", String)
			Attribute("file", Bytes)
			Required("filename", "file")
		})
		Result(MediaObject)
		HTTP(func() {
			POST("/media")
			MultipartRequest()
			Response(StatusCreated)
		})
	})

	Method("download", func() {
		Payload(func() {
			Attribute("ref", String)
			Required("ref")
		})
		Result(func() {
			Attribute("contentType", String)
			Required("contentType")
		})
		HTTP(func() {
			GET("/media/{ref}")
			SkipResponseBodyEncodeDecode()
			Response(StatusOK, func() {
				Header("contentType:Content-Type")
			})
		})
	})

	Method("delete", func() {
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("ref", String)
			Required("ref")
		})
		HTTP(func() {
			DELETE("/media/{ref}")
			Response(StatusNoContent)
		})
	})
})

var MediaObject = ResultType("MediaObject", func() {
	Attribute("url", String, "Public URL of the object")
	Attribute("ref", String, "Reference used to open or delete the object")
	Required("url", "ref")
})
