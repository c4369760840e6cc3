package models

// DropdownDefault describes a system category and its initial values.
// An empty InstitutionType makes the category shared.
type DropdownDefault struct {
	Key             string
	Name            string
	InstitutionType string
	Description     string
	Values          []string
}

var DefaultDropdowns = []DropdownDefault{
	// School
	{
		Key: "class", Name: "Class", InstitutionType: "School",
		Description: "Academic classes for school",
		Values: []string{
			"LKG", "UKG", "1st Standard", "2nd Standard", "3rd Standard", "4th Standard",
			"5th Standard", "6th Standard", "7th Standard", "8th Standard", "9th Standard",
			"10th Standard", "11th Standard", "12th Standard",
		},
	},
	{
		Key: "section", Name: "Section", InstitutionType: "School",
		Description: "Class sections for school",
		Values:      []string{"A", "B", "C", "D", "E", "F"},
	},
	{
		Key: "subject", Name: "Subject", InstitutionType: "School",
		Description: "Academic subjects for school",
		Values: []string{
			"English", "Hindi", "Mathematics", "Science", "Social Studies", "Computer Science",
			"Physical Education", "Art & Craft", "Music", "Moral Science", "Environmental Studies",
			"General Knowledge", "Physics", "Chemistry", "Biology", "History", "Geography",
			"Civics", "Economics", "Accountancy", "Business Studies", "Sanskrit", "French", "German",
		},
	},

	// College
	{
		Key: "course", Name: "Course", InstitutionType: "College",
		Description: "Academic courses for college",
		Values: []string{
			"B.Tech", "B.E.", "B.Sc", "B.Com", "B.A.", "BBA", "BCA", "B.Arch", "B.Pharm", "MBBS",
			"BDS", "LLB", "B.Ed", "M.Tech", "M.Sc", "M.Com", "M.A.", "MBA", "MCA", "M.Pharm",
			"MD", "LLM", "M.Ed", "Ph.D",
		},
	},
	{
		Key: "year", Name: "Year", InstitutionType: "College",
		Description: "Academic year for college",
		Values:      []string{"1st Year", "2nd Year", "3rd Year", "4th Year", "5th Year", "6th Year"},
	},
	{
		Key: "semester", Name: "Semester", InstitutionType: "College",
		Description: "Academic semester for college",
		Values: []string{
			"Semester 1", "Semester 2", "Semester 3", "Semester 4",
			"Semester 5", "Semester 6", "Semester 7", "Semester 8",
		},
	},
	{
		Key: "department", Name: "Department", InstitutionType: "College",
		Description: "Academic departments for college",
		Values: []string{
			"Computer Science & Engineering", "Electronics & Communication", "Electrical Engineering",
			"Mechanical Engineering", "Civil Engineering", "Information Technology",
			"Chemical Engineering", "Biotechnology", "Physics", "Chemistry", "Mathematics",
			"Commerce", "Management", "Arts & Humanities", "Law", "Medicine", "Pharmacy",
		},
	},
	{
		Key: "degree", Name: "Degree", InstitutionType: "College",
		Description: "Degree types for college",
		Values: []string{
			"Undergraduate (UG)", "Postgraduate (PG)", "Doctorate (Ph.D)", "Diploma", "Certificate",
		},
	},
	{
		Key: "subject_college", Name: "Subject (College)", InstitutionType: "College",
		Description: "Academic subjects for college",
		Values: []string{
			"Data Structures", "Algorithms", "Database Management", "Operating Systems",
			"Computer Networks", "Software Engineering", "Web Development", "Machine Learning",
			"Artificial Intelligence", "Digital Electronics", "Microprocessors", "Control Systems",
			"Power Systems", "Thermodynamics", "Fluid Mechanics", "Structural Analysis",
			"Financial Accounting", "Business Law", "Marketing Management",
			"Human Resource Management", "Organic Chemistry", "Inorganic Chemistry", "Calculus",
			"Linear Algebra", "Statistics",
		},
	},

	// Shared
	{
		Key: "gender", Name: "Gender", Description: "Gender options",
		Values: []string{"Male", "Female", "Other"},
	},
	{
		Key: "blood_group", Name: "Blood Group", Description: "Blood group options",
		Values: []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
	},
	{
		Key: "religion", Name: "Religion", Description: "Religion options",
		Values: []string{"Hindu", "Muslim", "Christian", "Sikh", "Buddhist", "Jain", "Other"},
	},
	{
		Key: "category", Name: "Category", Description: "Student category",
		Values: []string{"General", "OBC", "SC", "ST", "EWS"},
	},
	{
		Key: "nationality", Name: "Nationality", Description: "Nationality options",
		Values: []string{
			"Indian", "American", "British", "Canadian", "Australian",
			"German", "French", "Japanese", "Chinese", "Other",
		},
	},
	{
		Key: "marital_status", Name: "Marital Status", Description: "Marital status options",
		Values: []string{"Single", "Married", "Divorced", "Widowed", "Other"},
	},
	{
		Key: "designation", Name: "Designation", Description: "Staff designation",
		Values: []string{
			"Principal", "Vice Principal", "HOD", "Professor", "Associate Professor",
			"Assistant Professor", "Senior Teacher", "Teacher", "Junior Teacher", "Lab Assistant",
			"Librarian", "Accountant", "Clerk", "Peon", "Security Guard", "Driver", "Gardener",
		},
	},
	{
		Key: "fee_type", Name: "Fee Type", Description: "Types of fees",
		Values: []string{
			"Tuition Fee", "Admission Fee", "Registration Fee", "Exam Fee", "Lab Fee",
			"Library Fee", "Sports Fee", "Transport Fee", "Hostel Fee", "Mess Fee",
			"Caution Deposit", "Development Fee", "Computer Fee", "Annual Fee", "Late Fee",
		},
	},
	{
		Key: "payment_mode", Name: "Payment Mode", Description: "Payment methods",
		Values: []string{
			"Cash", "Credit Card", "Debit Card", "Net Banking", "UPI",
			"Cheque", "Demand Draft", "Bank Transfer", "Wallet",
		},
	},
	{
		Key: "exam_type", Name: "Exam Type", Description: "Types of examinations",
		Values: []string{
			"Unit Test 1", "Unit Test 2", "Unit Test 3", "Mid Term", "Pre-Final", "Final",
			"Practical", "Viva", "Assignment", "Project", "Internal Assessment",
		},
	},
	{
		Key: "grade", Name: "Grade", Description: "Grading system",
		Values: []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "E", "F"},
	},
	{
		Key: "status", Name: "Status", Description: "General status options",
		Values: []string{"Active", "Inactive", "Pending", "Completed", "Cancelled"},
	},
}
