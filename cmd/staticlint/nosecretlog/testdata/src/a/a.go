package a

type account struct {
	Name         string
	Password     string
	PasswordHash string
}

type sugared struct{}

func (sugared) Infoln(args ...interface{})                 {}
func (sugared) Debugf(template string, args ...interface{}) {}
func (sugared) Errorw(msg string, kv ...interface{})        {}

func format(args ...interface{}) string { return "" }

func f(log sugared, acc account) {
	log.Infoln("user", acc.Name)
	log.Infoln("hash", acc.PasswordHash)                   // want "avoid logging PasswordHash"
	log.Debugf("password %s", acc.Password)                // want "avoid logging Password"
	log.Errorw("failed", "details", format(acc.Password)) // want "avoid logging Password"
	_ = format(acc.PasswordHash)
}
