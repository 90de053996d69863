package validation

var nameRules = []Rule{Required(), Length(6, 100)}

// Registration validates POST /register.
var Registration = Schema{
	{Name: "first_name", Rules: nameRules},
	{Name: "last_name", Rules: nameRules},
	{Name: "username", Rules: nameRules},
	{Name: "email", Rules: []Rule{Required(), Email(), MaxLength(120)}},
	{Name: "password", Rules: []Rule{Required(), MaxBytes(72)}},
	{Name: "confirm_password", Rules: []Rule{Required(), EqualTo("password")}},
}

// Login validates POST /login.
var Login = Schema{
	{Name: "email", Rules: []Rule{Required(), Email()}},
	{Name: "password", Rules: []Rule{Required()}},
}

// Account validates updates to the authenticated user's profile.
var Account = Schema{
	{Name: "first_name", Rules: nameRules},
	{Name: "last_name", Rules: nameRules},
	{Name: "username", Rules: nameRules},
	{Name: "email", Rules: []Rule{Required(), Email(), MaxLength(120)}},
}

// Post validates post creation and updates.
var Post = Schema{
	{Name: "title", Rules: []Rule{Required(), MaxLength(100)}},
	{Name: "content", Rules: []Rule{Required()}},
}

// Comment validates new comments.
var Comment = Schema{
	{Name: "content", Rules: []Rule{Required().WithMessage("Content is required to be able to comment")}},
}

// TagPost validates POST /tag-post.
var TagPost = Schema{
	{Name: "tag_name", Rules: []Rule{Required(), MaxLength(50)}},
	{Name: "post_id", Rules: []Rule{Required()}},
	{Name: "description", Rules: []Rule{MaxLength(200)}},
}
